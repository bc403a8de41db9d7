package whatsapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/challans/internal/domain/models"
	client "github.com/mamadbah2/challans/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent     []client.TextMessage
	deadline bool
	err      error
}

func (f *fakeClient) SendText(ctx context.Context, msg client.TextMessage) (client.Receipt, error) {
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return client.Receipt{}, f.err
	}
	f.sent = append(f.sent, msg)
	return client.Receipt{MessageID: "wamid.1"}, nil
}

func TestSendOutbound(t *testing.T) {
	fc := &fakeClient{}
	svc := NewMetaWhatsAppService(fc, nil)

	err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "9199", Message: "3 items overdue"})
	if err != nil {
		t.Fatalf("SendOutbound: %v", err)
	}
	if len(fc.sent) != 1 || fc.sent[0].Body != "3 items overdue" {
		t.Fatalf("sent = %+v", fc.sent)
	}
	if !fc.deadline {
		t.Fatal("expected a bounded context")
	}
}

func TestSendOutboundErrors(t *testing.T) {
	fc := &fakeClient{err: errors.New("boom")}
	svc := NewMetaWhatsAppService(fc, nil)

	if err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "", Message: "x"}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v", err)
	}
	if err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "x"}); err == nil {
		t.Fatal("expected client error")
	}

	rejected := &client.APIError{Status: 401, Code: 190, TraceID: "abc"}
	svc = NewMetaWhatsAppService(&fakeClient{err: rejected}, nil)
	err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "x"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || !apiErr.TokenRejected() {
		t.Fatalf("err = %v, want rejected token", err)
	}
}

func TestNoopMessagingService(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := NewNoopMessagingService(nil).SendOutbound(ctx, models.OutboundMessageRequest{Message: "x"}); err != nil {
		t.Fatal(err)
	}
}

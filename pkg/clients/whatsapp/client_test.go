package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mamadbah2/challans/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.WhatsAppConfig{BaseURL: srv.URL + "/", APIVersion: "v20.0", AccessToken: "secret", PhoneNumberID: "12345"})
}

func TestSendText(t *testing.T) {
	var got textPayload
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/12345/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"contacts":[{"input":"919999999999","wa_id":"919999999999"}],"messages":[{"id":"wamid.1"}]}`))
	})

	receipt, err := c.SendText(context.Background(), TextMessage{To: " +919999999999", Body: "hello"})
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if receipt.MessageID != "wamid.1" || receipt.WaID != "919999999999" {
		t.Fatalf("receipt = %+v", receipt)
	}
	if got.To != "919999999999" || got.Type != "text" || got.RecipientType != "individual" || got.Text.Body != "hello" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestSendTextAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","code":190,"fbtrace_id":"abc"}}`))
	})

	_, err := c.SendText(context.Background(), TextMessage{To: "1", Body: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if !apiErr.TokenRejected() || apiErr.TraceID != "abc" || !strings.Contains(err.Error(), "Invalid OAuth") {
		t.Fatalf("api error = %+v", apiErr)
	}
}

func TestSendTextWithoutReceipt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[]}`))
	})

	if _, err := c.SendText(context.Background(), TextMessage{To: "1", Body: "x"}); !errors.Is(err, ErrNoReceipt) {
		t.Fatalf("err = %v, want ErrNoReceipt", err)
	}
}

func TestTruncate(t *testing.T) {
	short := "hello"
	if truncate(short) != short {
		t.Fatal("short bodies must pass through")
	}
	long := strings.Repeat("é", MaxTextBody+10)
	cut := truncate(long)
	if n := utf8.RuneCountInString(cut); n != MaxTextBody {
		t.Fatalf("truncated length = %d", n)
	}
	if !strings.HasSuffix(cut, truncatedSuffix) {
		t.Fatal("missing suffix")
	}
}

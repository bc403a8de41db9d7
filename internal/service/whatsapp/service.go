package whatsapp

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
	client "github.com/mamadbah2/challans/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// ErrEmptyMessage is returned for requests without a recipient or body.
var ErrEmptyMessage = errors.New("outbound message needs a recipient and a body")

// MessagingService pushes text notifications to operators.
type MessagingService interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	client client.Client
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		client: client,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// SendOutbound delivers one text message, bounded by a short timeout.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Message) == "" {
		return ErrEmptyMessage
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	receipt, err := s.client.SendText(ctxWithTimeout, client.TextMessage{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.TokenRejected() {
		s.logger.Error("whatsapp access token rejected, reminders cannot be delivered", zap.String("trace_id", apiErr.TraceID))
	}
	if err != nil {
		return err
	}

	s.logger.Info("whatsapp message sent",
		zap.String("to", req.To),
		zap.String("reference", req.Reference),
		zap.String("message_id", receipt.MessageID))
	return nil
}

// NoopMessagingService drops messages. It stands in when WhatsApp is not configured.
type NoopMessagingService struct {
	logger *zap.Logger
}

// NewNoopMessagingService builds the disabled messaging service.
func NewNoopMessagingService(logger *zap.Logger) *NoopMessagingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopMessagingService{logger: logger}
}

// SendOutbound logs and discards req.
func (s *NoopMessagingService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	s.logger.Debug("whatsapp disabled, message dropped", zap.Int("length", len(req.Message)))
	return nil
}

package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/challans/internal/config"
)

// MaxTextBody is the longest text body the Cloud API accepts.
const MaxTextBody = 4096

const (
	truncatedSuffix    = "\n..."
	codeTokenRejected  = 190
	defaultSendTimeout = 15 * time.Second
)

// ErrNoReceipt is returned when the API accepts a message without reporting its id.
var ErrNoReceipt = errors.New("whatsapp response carried no message id")

// Client sends reminder texts through the WhatsApp Cloud API.
type Client interface {
	SendText(ctx context.Context, msg TextMessage) (Receipt, error)
}

// TextMessage is one plain text message to a single recipient.
type TextMessage struct {
	To         string
	Body       string
	PreviewURL bool
}

// Receipt identifies an accepted message.
type Receipt struct {
	MessageID string
	WaID      string
}

// APIError is a rejection reported by the Cloud API.
type APIError struct {
	Status  int
	Code    int
	Subcode int
	Message string
	TraceID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error: status=%d code=%d message=%s trace=%s", e.Status, e.Code, e.Message, e.TraceID)
}

// TokenRejected reports whether the access token is invalid or expired.
func (e *APIError) TokenRejected() bool {
	return e.Code == codeTokenRejected || e.Status == http.StatusUnauthorized
}

// APIClient is the resty implementation of Client.
type APIClient struct {
	http          *resty.Client
	phoneNumberID string
}

// NewClient builds a client for the configured sender number.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	r := resty.New().
		SetBaseURL(base+"/"+cfg.APIVersion).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(defaultSendTimeout)

	return &APIClient{http: r, phoneNumberID: cfg.PhoneNumberID}
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type sendResponse struct {
	Contacts []struct {
		WaID string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type errorEnvelope struct {
	Error struct {
		Message   string `json:"message"`
		Code      int    `json:"code"`
		Subcode   int    `json:"error_subcode"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// SendText posts msg. Bodies longer than MaxTextBody are cut and the
// recipient's leading "+" is dropped.
func (c *APIClient) SendText(ctx context.Context, msg TextMessage) (Receipt, error) {
	payload := textPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               strings.TrimPrefix(strings.TrimSpace(msg.To), "+"),
		Type:             "text",
		Text:             textBody{Body: truncate(msg.Body), PreviewURL: msg.PreviewURL},
	}

	var ok sendResponse
	var failed errorEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&ok).
		SetError(&failed).
		Post(c.phoneNumberID + "/messages")
	if err != nil {
		return Receipt{}, fmt.Errorf("send whatsapp text: %w", err)
	}

	if resp.IsError() {
		return Receipt{}, &APIError{
			Status:  resp.StatusCode(),
			Code:    failed.Error.Code,
			Subcode: failed.Error.Subcode,
			Message: failed.Error.Message,
			TraceID: failed.Error.FBTraceID,
		}
	}

	if len(ok.Messages) == 0 || ok.Messages[0].ID == "" {
		return Receipt{}, ErrNoReceipt
	}
	receipt := Receipt{MessageID: ok.Messages[0].ID}
	if len(ok.Contacts) > 0 {
		receipt.WaID = ok.Contacts[0].WaID
	}
	return receipt, nil
}

func truncate(body string) string {
	if utf8.RuneCountInString(body) <= MaxTextBody {
		return body
	}
	runes := []rune(body)
	return string(runes[:MaxTextBody-utf8.RuneCountInString(truncatedSuffix)]) + truncatedSuffix
}

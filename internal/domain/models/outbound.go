package models

// OutboundMessageRequest is a text notification pushed to a WhatsApp recipient.
// Reference links the message to the record that produced it, such as a digest id.
type OutboundMessageRequest struct {
	To         string `json:"to"`
	Message    string `json:"message"`
	Reference  string `json:"reference,omitempty"`
	PreviewURL bool   `json:"preview_url"`
}

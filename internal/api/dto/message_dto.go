package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SendMessageRequest is the direct-message payload.
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

// MessageResponse is the wire shape of a direct message.
type MessageResponse struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMessageResponse maps a domain message to its wire shape.
func NewMessageResponse(message *domain.Message) MessageResponse {
	return MessageResponse{
		ID:          message.ID,
		SenderID:    message.SenderID,
		RecipientID: message.RecipientID,
		Content:     message.Content,
		CreatedAt:   message.CreatedAt,
	}
}

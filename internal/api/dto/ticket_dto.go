package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest is the ticket creation payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
}

// UpdateTicketRequest carries a partial ticket update. At least one field
// must be present.
type UpdateTicketRequest struct {
	Status     *string `json:"status"`
	Priority   *string `json:"priority"`
	Category   *string `json:"category"`
	AssigneeID *string `json:"assignee_id"`
	TxRef      *string `json:"tx_ref"`
}

// AssignTicketRequest names the assignee.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// CreateCommentRequest is the comment payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	CreatorID   string    `json:"creator_id"`
	AssigneeID  *string   `json:"assignee_id,omitempty"`
	TxRef       *string   `json:"tx_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateTicketResponse pairs the new ticket with possible duplicates.
type CreateTicketResponse struct {
	Ticket         TicketResponse   `json:"ticket"`
	SimilarTickets []TicketResponse `json:"similar_tickets"`
}

// TicketDetailResponse is a ticket with its comments.
type TicketDetailResponse struct {
	TicketResponse
	Comments []CommentResponse `json:"comments"`
}

// CommentResponse is the wire shape of a comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryCountResponse is one row of the category aggregate.
type CategoryCountResponse struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ActivityEntryResponse is one audit trail row.
type ActivityEntryResponse struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	ActorID   string         `json:"actor_id"`
	TicketID  *string        `json:"ticket_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewTicketResponse maps a domain ticket to its wire shape.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      string(ticket.Status),
		Priority:    string(ticket.Priority),
		Category:    string(ticket.Category),
		CreatorID:   ticket.CreatorID,
		AssigneeID:  ticket.AssigneeID,
		TxRef:       ticket.TxRef,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewCommentResponse maps a domain comment to its wire shape.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}

// NewActivityEntryResponse maps an audit row to its wire shape.
func NewActivityEntryResponse(entry *domain.ActivityLogEntry) ActivityEntryResponse {
	return ActivityEntryResponse{
		ID:        entry.ID,
		Action:    string(entry.Action),
		ActorID:   entry.ActorID,
		TicketID:  entry.TicketID,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	}
}

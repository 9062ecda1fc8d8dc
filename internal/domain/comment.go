package domain

import "time"

// Comment is an append-only child of a ticket; immutable once created.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

package domain

import "time"

// Message is a direct 1:1 communication between two users, independent of
// any ticket. A conversation is the unordered pair of user ids, ordered by
// CreatedAt.
type Message struct {
	ID          string
	SenderID    string
	RecipientID string
	Content     string
	CreatedAt   time.Time
}

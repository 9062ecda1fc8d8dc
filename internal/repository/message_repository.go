package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// MessageRepository encapsulates direct-message persistence.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	ListConversation(ctx context.Context, userA, userB string, limit, offset int) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository instantiates repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	const query = `
        INSERT INTO messages (sender_user_id, recipient_user_id, content)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		message.SenderID,
		message.RecipientID,
		message.Content,
	).Scan(&message.ID, &message.CreatedAt)
}

// ListConversation returns messages exchanged between the unordered pair of
// users, oldest first.
func (r *messageRepository) ListConversation(ctx context.Context, userA, userB string, limit, offset int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, sender_user_id, recipient_user_id, content, created_at
        FROM messages
        WHERE (sender_user_id=$1 AND recipient_user_id=$2)
           OR (sender_user_id=$2 AND recipient_user_id=$1)
        ORDER BY created_at ASC
        LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, userA, userB, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var message domain.Message
		if err := rows.Scan(
			&message.ID,
			&message.SenderID,
			&message.RecipientID,
			&message.Content,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, message)
	}
	return result, rows.Err()
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/errorutil"
	"github.com/spec-kit/helpdesk/pkg/safego"
)

// MessageService handles direct user-to-user messages, independent of
// any ticket.
type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	email    notify.EmailSender
	logger   *zap.Logger
}

// NewMessageService constructs the service.
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, email notify.EmailSender, logger *zap.Logger) *MessageService {
	return &MessageService{messages: messages, users: users, email: email, logger: logger}
}

// Send delivers a direct message and fires a best-effort email to the
// recipient.
func (s *MessageService) Send(ctx context.Context, sender *domain.User, recipientID, content string) (*domain.Message, error) {
	if sender == nil {
		return nil, errorutil.NewUnauthorized("user required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errorutil.NewValidationError("content required", nil)
	}
	if recipientID == sender.ID {
		return nil, errorutil.NewValidationError("cannot message yourself", nil)
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("user", map[string]any{"user_id": recipientID})
		}
		return nil, errorutil.MapError(err)
	}

	message := &domain.Message{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     content,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, errorutil.MapError(err)
	}

	if s.email != nil {
		recipientEmail := recipient.Email
		recipientName := recipient.Name
		senderName := sender.Name
		excerpt := excerpt(content, 100)
		safego.Go(s.logger, "notify-direct-message", func() {
			err := s.email.SendTicketEmail(notify.EmailTicketUpdated, notify.TicketEmail{
				TicketTitle:    "Direct message",
				RecipientEmail: recipientEmail,
				RecipientName:  recipientName,
				UpdaterName:    senderName,
				Comment:        excerpt,
			})
			if err != nil {
				s.logger.Warn("direct message email failed",
					zap.String("recipient", recipientEmail),
					zap.Error(err))
			}
		})
	}
	return message, nil
}

// ListConversation returns the messages exchanged between the caller and
// the other user, oldest first.
func (s *MessageService) ListConversation(ctx context.Context, caller *domain.User, otherUserID string, limit, offset int) ([]domain.Message, error) {
	if caller == nil {
		return nil, errorutil.NewUnauthorized("user required")
	}
	if _, err := s.users.GetByID(ctx, otherUserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("user", map[string]any{"user_id": otherUserID})
		}
		return nil, errorutil.MapError(err)
	}
	messages, err := s.messages.ListConversation(ctx, caller.ID, otherUserID, limit, offset)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return messages, nil
}

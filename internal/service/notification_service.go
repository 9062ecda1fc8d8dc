package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/safego"
)

// NotificationService fans domain events out to email recipients and the
// realtime channel. Every delivery is fire and forget: nothing here can
// fail the operation that produced the event.
type NotificationService struct {
	users    repository.UserRepository
	realtime notify.RealtimePublisher
	email    notify.EmailSender
	logger   *zap.Logger
}

// NewNotificationService constructs the fan-out service.
func NewNotificationService(users repository.UserRepository, realtime notify.RealtimePublisher, email notify.EmailSender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		users:    users,
		realtime: realtime,
		email:    email,
		logger:   logger,
	}
}

// RegisterHandlers subscribes to the events that produce notifications.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.onTicketCreated)
	dispatcher.Subscribe(events.EventTicketAssigned, s.onTicketAssigned)
	dispatcher.Subscribe(events.EventTicketStatusChanged, s.onStatusChanged)
	dispatcher.Subscribe(events.EventTicketUpdated, s.onTicketUpdated)
	dispatcher.Subscribe(events.EventCommentAdded, s.onCommentAdded)
}

func (s *NotificationService) onTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}

	safego.Go(s.logger, "notify-ticket-created", func() {
		bg := context.Background()

		// Confirmation to the creator, then a heads-up to every admin.
		s.sendEmail(bg, event, event.CreatorID, notify.EmailTicketCreated, "")
		for _, admin := range s.adminIDs(bg) {
			if admin == event.CreatorID || admin == event.Actor.ID {
				continue
			}
			s.sendEmail(bg, event, admin, notify.EmailTicketUpdated, "")
		}

		s.publishRealtime(bg, event, notify.RealtimeUpdate{
			Priority: string(payload.Priority),
		}, notify.RealtimeEventUpdate)
	})
	return nil
}

func (s *NotificationService) onTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}

	safego.Go(s.logger, "notify-ticket-assigned", func() {
		bg := context.Background()

		for _, recipient := range s.recipients(event, payload.AssigneeID, event.CreatorID) {
			kind := notify.EmailTicketUpdated
			if recipient == payload.AssigneeID {
				kind = notify.EmailTicketAssigned
			}
			s.sendEmail(bg, event, recipient, kind, "")
		}

		s.publishRealtime(bg, event, notify.RealtimeUpdate{
			Status:     string(payload.NewStatus),
			AssignedTo: payload.AssigneeID,
		}, notify.RealtimeEventUpdate)
	})
	return nil
}

func (s *NotificationService) onStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}

	safego.Go(s.logger, "notify-status-changed", func() {
		bg := context.Background()

		if payload.NewStatus.IsTerminal() {
			ids := append([]string{event.CreatorID}, s.adminIDs(bg)...)
			for _, recipient := range s.recipients(event, ids...) {
				s.sendEmail(bg, event, recipient, notify.EmailTicketResolved, "")
			}
		} else {
			for _, recipient := range s.recipients(event, s.interestedParties(event)...) {
				s.sendEmail(bg, event, recipient, notify.EmailTicketUpdated, "")
			}
		}

		s.publishRealtime(bg, event, notify.RealtimeUpdate{
			Status: string(payload.NewStatus),
		}, notify.RealtimeEventUpdate)
	})
	return nil
}

func (s *NotificationService) onTicketUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok {
		return nil
	}

	safego.Go(s.logger, "notify-ticket-updated", func() {
		bg := context.Background()

		for _, recipient := range s.recipients(event, s.interestedParties(event)...) {
			s.sendEmail(bg, event, recipient, notify.EmailTicketUpdated, "")
		}

		update := notify.RealtimeUpdate{}
		if payload.Field == "priority" {
			update.Priority = payload.NewValue
		}
		s.publishRealtime(bg, event, update, notify.RealtimeEventUpdate)
	})
	return nil
}

func (s *NotificationService) onCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return nil
	}

	safego.Go(s.logger, "notify-comment-added", func() {
		bg := context.Background()

		for _, recipient := range s.recipients(event, s.interestedParties(event)...) {
			s.sendEmail(bg, event, recipient, notify.EmailTicketUpdated, payload.Excerpt)
		}

		s.publishRealtime(bg, event, notify.RealtimeUpdate{
			Comment: payload.Excerpt,
		}, notify.RealtimeEventComment)
	})
	return nil
}

// interestedParties is the default notify pair: creator and assignee.
func (s *NotificationService) interestedParties(event events.Event) []string {
	ids := []string{event.CreatorID}
	if event.AssigneeID != nil {
		ids = append(ids, *event.AssigneeID)
	}
	return ids
}

// recipients deduplicates candidate ids and drops the acting user.
func (s *NotificationService) recipients(event events.Event, candidates ...string) []string {
	seen := make(map[string]struct{}, len(candidates))
	result := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if id == "" || id == event.Actor.ID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func (s *NotificationService) adminIDs(ctx context.Context) []string {
	admins, err := s.users.ListByRoles(ctx, domain.RoleAdmin)
	if err != nil {
		s.logger.Warn("listing admins for notification failed", zap.Error(err))
		return nil
	}
	ids := make([]string, 0, len(admins))
	for _, admin := range admins {
		ids = append(ids, admin.ID)
	}
	return ids
}

func (s *NotificationService) sendEmail(ctx context.Context, event events.Event, userID string, kind notify.EmailKind, comment string) {
	if s.email == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("notification recipient lookup failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	err = s.email.SendTicketEmail(kind, notify.TicketEmail{
		TicketID:       event.TicketID,
		TicketTitle:    event.TicketTitle,
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
		UpdaterName:    event.Actor.Name,
		Comment:        comment,
	})
	if err != nil {
		s.logger.Warn("ticket email delivery failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("recipient", user.Email),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

func (s *NotificationService) publishRealtime(ctx context.Context, event events.Event, update notify.RealtimeUpdate, eventName string) {
	if s.realtime == nil {
		return
	}
	update.TicketID = event.TicketID
	update.UpdatedBy = event.Actor.Name
	update.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)

	channel := notify.TicketChannel(event.TicketID)
	if err := s.realtime.Publish(ctx, channel, eventName, update); err != nil {
		s.logger.Warn("realtime publish failed",
			zap.String("channel", channel),
			zap.Error(err))
	}
}

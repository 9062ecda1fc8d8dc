package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// ActivityService projects domain events into the append-only audit
// trail. Recording failures are logged and swallowed so the trail never
// blocks an operation.
type ActivityService struct {
	activity repository.ActivityRepository
	logger   *zap.Logger
}

// NewActivityService constructs the recorder.
func NewActivityService(activity repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{activity: activity, logger: logger}
}

// RegisterHandlers subscribes the recorder to every lifecycle event.
func (s *ActivityService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.record)
	dispatcher.Subscribe(events.EventTicketAssigned, s.record)
	dispatcher.Subscribe(events.EventTicketStatusChanged, s.record)
	dispatcher.Subscribe(events.EventTicketUpdated, s.record)
	dispatcher.Subscribe(events.EventCommentAdded, s.record)
	dispatcher.Subscribe(events.EventTicketDeleted, s.record)
}

func (s *ActivityService) record(ctx context.Context, event events.Event) error {
	action, details := classify(event)
	if action == "" {
		return nil
	}

	entry := &domain.ActivityLogEntry{
		Action:  action,
		ActorID: event.Actor.ID,
		Details: details,
	}
	// Deletions outlive the ticket row, so the foreign key stays unset.
	if event.Type != events.EventTicketDeleted {
		ticketID := event.TicketID
		entry.TicketID = &ticketID
	}

	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("activity record failed",
			zap.String("action", string(action)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
	return nil
}

func classify(event events.Event) (domain.ActivityAction, map[string]any) {
	switch event.Type {
	case events.EventTicketCreated:
		payload, _ := event.Payload.(events.TicketCreatedPayload)
		return domain.ActionCreatedTicket, map[string]any{
			"title":    event.TicketTitle,
			"priority": string(payload.Priority),
			"category": string(payload.Category),
		}
	case events.EventTicketAssigned:
		payload, _ := event.Payload.(events.TicketAssignedPayload)
		return domain.ActionAssignedTicket, map[string]any{
			"assignee_id": payload.AssigneeID,
			"old_status":  string(payload.OldStatus),
			"new_status":  string(payload.NewStatus),
		}
	case events.EventTicketStatusChanged:
		payload, _ := event.Payload.(events.TicketStatusChangedPayload)
		return statusAction(payload), map[string]any{
			"old_status": string(payload.OldStatus),
			"new_status": string(payload.NewStatus),
		}
	case events.EventTicketUpdated:
		payload, _ := event.Payload.(events.TicketUpdatedPayload)
		action := domain.ActionUpdatedTicket
		if payload.Field == "priority" {
			action = domain.ActionChangedPriority
		}
		return action, map[string]any{
			"field":     payload.Field,
			"old_value": payload.OldValue,
			"new_value": payload.NewValue,
		}
	case events.EventCommentAdded:
		payload, _ := event.Payload.(events.CommentAddedPayload)
		return domain.ActionAddedComment, map[string]any{
			"comment_id": payload.CommentID,
			"excerpt":    payload.Excerpt,
		}
	case events.EventTicketDeleted:
		payload, _ := event.Payload.(events.TicketDeletedPayload)
		return domain.ActionDeletedTicket, map[string]any{
			"ticket_id": event.TicketID,
			"title":     payload.Title,
		}
	}
	return "", nil
}

func statusAction(payload events.TicketStatusChangedPayload) domain.ActivityAction {
	switch {
	case payload.NewStatus == domain.TicketStatusResolved:
		return domain.ActionResolvedTicket
	case payload.NewStatus == domain.TicketStatusClosed:
		return domain.ActionClosedTicket
	case payload.OldStatus.IsTerminal() && !payload.NewStatus.IsTerminal():
		return domain.ActionReopenedTicket
	}
	return domain.ActionChangedStatus
}

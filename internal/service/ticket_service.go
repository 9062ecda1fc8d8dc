package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/ledger"
	"github.com/spec-kit/helpdesk/internal/permission"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/errorutil"
	"github.com/spec-kit/helpdesk/pkg/safego"
)

const similarTicketLimit = 5

// TicketService is the lifecycle engine: it enacts ticket state
// transitions under permission gating and emits domain events. Persistence
// is synchronous; everything downstream of an event is best-effort.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	activity   repository.ActivityRepository
	perms      *permission.Evaluator
	dispatcher events.Dispatcher
	receipts   ledger.ReceiptRecorder
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the lifecycle engine.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CommentRepo  repository.CommentRepository
	UserRepo     repository.UserRepository
	ActivityRepo repository.ActivityRepository
	Permissions  *permission.Evaluator
	Dispatcher   events.Dispatcher
	Receipts     ledger.ReceiptRecorder
	Logger       *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Category    domain.TicketCategory
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	CreatorID  *string
	AssigneeID *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Categories []domain.TicketCategory
	Limit      int
	Offset     int
}

// NewTicketService constructs the engine.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		activity:   deps.ActivityRepo,
		perms:      deps.Permissions,
		dispatcher: deps.Dispatcher,
		receipts:   deps.Receipts,
		logger:     deps.Logger,
	}
}

// CreateTicket creates a ticket and returns it together with up to five
// recent tickets whose titles look similar. The similarity lookup is a
// best-effort duplicate hint and never fails creation.
func (s *TicketService) CreateTicket(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.Ticket, []domain.Ticket, error) {
	if creator == nil {
		return nil, nil, errorutil.NewUnauthorized("user required")
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, nil, errorutil.NewValidationError("title and description required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, nil, errorutil.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}
	category := input.Category
	if category == "" {
		category = domain.TicketCategoryGeneral
	}
	if !domain.ValidCategory(category) {
		return nil, nil, errorutil.NewValidationError("invalid category", map[string]any{"category": input.Category})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		Category:    category,
		CreatorID:   creator.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, nil, errorutil.MapError(err)
	}

	similar, err := s.tickets.FindSimilarByTitle(ctx, title, similarTicketLimit)
	if err != nil {
		s.logger.Warn("similar ticket lookup failed", zap.Error(err))
		similar = nil
	} else {
		similar = excludeTicket(similar, ticket.ID)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketCreated,
		TicketID:    ticket.ID,
		TicketTitle: ticket.Title,
		CreatorID:   ticket.CreatorID,
		Actor:       actorOf(creator),
		Payload: events.TicketCreatedPayload{
			Priority: ticket.Priority,
			Category: ticket.Category,
		},
	})
	return ticket, similar, nil
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.loadTicket(ctx, ticketID)
}

// ListTickets returns tickets matching the filter, newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		CreatorID:  filter.CreatorID,
		AssigneeID: filter.AssigneeID,
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Categories: filter.Categories,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return tickets, nil
}

// CategoryCounts returns the per-category aggregate.
func (s *TicketService) CategoryCounts(ctx context.Context) ([]repository.CategoryCount, error) {
	counts, err := s.tickets.CountByCategory(ctx)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return counts, nil
}

// AssignTicket assigns the ticket to a staff member. Assigning an OPEN
// ticket auto-advances it to IN_PROGRESS; any other status is untouched.
func (s *TicketService) AssignTicket(ctx context.Context, actor *domain.User, ticketID, assigneeID string) (*domain.Ticket, error) {
	if !s.perms.CanAssign(actor) {
		return nil, errorutil.NewPermissionDenied("not allowed to assign tickets")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewInvalidAssignee("assignee not found", map[string]any{"user_id": assigneeID})
		}
		return nil, errorutil.MapError(err)
	}
	if !assignee.Role.IsStaff() {
		return nil, errorutil.NewInvalidAssignee("assignee must be support staff", map[string]any{"user_id": assigneeID})
	}

	oldStatus := ticket.Status
	ticket.AssigneeID = &assignee.ID
	if ticket.Status == domain.TicketStatusOpen {
		ticket.Status = domain.TicketStatusInProgress
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, errorutil.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketAssigned,
		TicketID:    ticket.ID,
		TicketTitle: ticket.Title,
		CreatorID:   ticket.CreatorID,
		AssigneeID:  ticket.AssigneeID,
		Actor:       actorOf(actor),
		Payload: events.TicketAssignedPayload{
			AssigneeID: assignee.ID,
			OldStatus:  oldStatus,
			NewStatus:  ticket.Status,
		},
	})
	return ticket, nil
}

// UpdateStatus sets the ticket status. No transition graph is enforced:
// any authorized actor may set any status, including re-opening. Terminal
// statuses trigger a background ledger receipt when a recorder is wired.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, errorutil.NewValidationError("invalid status", map[string]any{"status": newStatus})
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.perms.CanChangeStatus(actor, ticket) {
		return nil, errorutil.NewPermissionDenied("not allowed to change status")
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, errorutil.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketStatusChanged,
		TicketID:    ticket.ID,
		TicketTitle: ticket.Title,
		CreatorID:   ticket.CreatorID,
		AssigneeID:  ticket.AssigneeID,
		Actor:       actorOf(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})

	if newStatus.IsTerminal() && s.receipts != nil {
		s.recordReceiptAsync(ticket.ID, newStatus)
	}
	return ticket, nil
}

// UpdatePriority sets the ticket priority.
func (s *TicketService) UpdatePriority(ctx context.Context, actor *domain.User, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	if !domain.ValidPriority(newPriority) {
		return nil, errorutil.NewValidationError("invalid priority", map[string]any{"priority": newPriority})
	}
	return s.updateField(ctx, actor, ticketID, "priority", func(t *domain.Ticket) (string, string) {
		old := string(t.Priority)
		t.Priority = newPriority
		return old, string(newPriority)
	})
}

// UpdateCategory sets the ticket category.
func (s *TicketService) UpdateCategory(ctx context.Context, actor *domain.User, ticketID string, newCategory domain.TicketCategory) (*domain.Ticket, error) {
	if !domain.ValidCategory(newCategory) {
		return nil, errorutil.NewValidationError("invalid category", map[string]any{"category": newCategory})
	}
	return s.updateField(ctx, actor, ticketID, "category", func(t *domain.Ticket) (string, string) {
		old := string(t.Category)
		t.Category = newCategory
		return old, string(newCategory)
	})
}

func (s *TicketService) updateField(ctx context.Context, actor *domain.User, ticketID, field string, apply func(*domain.Ticket) (string, string)) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.perms.CanChangeStatus(actor, ticket) {
		return nil, errorutil.NewPermissionDenied("not allowed to update ticket")
	}

	oldValue, newValue := apply(ticket)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, errorutil.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketUpdated,
		TicketID:    ticket.ID,
		TicketTitle: ticket.Title,
		CreatorID:   ticket.CreatorID,
		AssigneeID:  ticket.AssigneeID,
		Actor:       actorOf(actor),
		Payload: events.TicketUpdatedPayload{
			Field:    field,
			OldValue: oldValue,
			NewValue: newValue,
		},
	})
	return ticket, nil
}

// AddComment appends a comment. The resolved/closed block is unconditional
// and checked before the permission gate.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, content string) (*domain.Comment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, errorutil.NewInvalidState("ticket no longer accepts comments", map[string]any{"status": ticket.Status})
	}
	if !s.perms.CanComment(actor, ticket) {
		return nil, errorutil.NewPermissionDenied("not allowed to comment")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errorutil.NewValidationError("content required", nil)
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, errorutil.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventCommentAdded,
		TicketID:    ticket.ID,
		TicketTitle: ticket.Title,
		CreatorID:   ticket.CreatorID,
		AssigneeID:  ticket.AssigneeID,
		Actor:       actorOf(actor),
		Payload: events.CommentAddedPayload{
			CommentID: comment.ID,
			Excerpt:   excerpt(comment.Content, 100),
		},
	})
	return comment, nil
}

// ListComments returns the ticket's comments, newest first.
func (s *TicketService) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	if _, err := s.loadTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return comments, nil
}

// ListActivity returns the audit trail for a ticket.
func (s *TicketService) ListActivity(ctx context.Context, ticketID string, limit, offset int) ([]domain.ActivityLogEntry, error) {
	if _, err := s.loadTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.activity.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return entries, nil
}

// DeleteTicket hard-deletes the ticket; comments cascade at the store.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string) error {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if !s.perms.CanDelete(actor, ticket) {
		return errorutil.NewPermissionDenied("not allowed to delete ticket")
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return errorutil.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketDeleted,
		TicketID:    ticket.ID,
		TicketTitle: ticket.Title,
		CreatorID:   ticket.CreatorID,
		AssigneeID:  ticket.AssigneeID,
		Actor:       actorOf(actor),
		Payload:     events.TicketDeletedPayload{Title: ticket.Title},
	})
	return nil
}

// RecordExternalReceipt attaches an opaque external reference to the
// ticket. The reference content is never validated.
func (s *TicketService) RecordExternalReceipt(ctx context.Context, ticketID, txRef string) (*domain.Ticket, error) {
	if strings.TrimSpace(txRef) == "" {
		return nil, errorutil.NewValidationError("tx_ref required", nil)
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.TxRef = &txRef
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, errorutil.MapError(err)
	}
	return ticket, nil
}

// recordReceiptAsync obtains a ledger receipt in the background and
// attaches it. Fire and forget: failures are logged, never surfaced.
func (s *TicketService) recordReceiptAsync(ticketID string, status domain.TicketStatus) {
	safego.Go(s.logger, "ledger-receipt", func() {
		ctx := context.Background()
		txRef, err := s.receipts.RecordStatusChange(ctx, ticketID, status)
		if err != nil {
			s.logger.Warn("ledger receipt failed",
				zap.String("ticket_id", ticketID),
				zap.Error(err))
			return
		}
		if _, err := s.RecordExternalReceipt(ctx, ticketID, txRef); err != nil {
			s.logger.Warn("attaching ledger receipt failed",
				zap.String("ticket_id", ticketID),
				zap.Error(err))
		}
	})
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, errorutil.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorOf(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{ID: user.ID, Name: user.Name}
}

func excludeTicket(tickets []domain.Ticket, id string) []domain.Ticket {
	filtered := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.ID == id {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

func excerpt(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

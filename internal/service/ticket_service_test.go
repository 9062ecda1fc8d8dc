package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/permission"
	"github.com/spec-kit/helpdesk/pkg/errorutil"
)

type ticketTestEnv struct {
	service  *TicketService
	tickets  *fakeTicketRepo
	comments *fakeCommentRepo
	users    *fakeUserRepo
	activity *fakeActivityRepo
	receipts *fakeReceiptRecorder
}

func newTicketTestEnv(t *testing.T, users ...*domain.User) *ticketTestEnv {
	t.Helper()
	env := &ticketTestEnv{
		tickets:  newFakeTicketRepo(),
		comments: &fakeCommentRepo{},
		users:    newFakeUserRepo(users...),
		activity: &fakeActivityRepo{},
		receipts: &fakeReceiptRecorder{},
	}
	dispatcher := events.NewInMemoryDispatcher()
	NewActivityService(env.activity, zap.NewNop()).RegisterHandlers(dispatcher)

	env.service = NewTicketService(TicketDependencies{
		TicketRepo:   env.tickets,
		CommentRepo:  env.comments,
		UserRepo:     env.users,
		ActivityRepo: env.activity,
		Permissions:  permission.NewEvaluator(permission.AssignPolicyPermissive),
		Dispatcher:   dispatcher,
		Receipts:     env.receipts,
		Logger:       zap.NewNop(),
	})
	return env
}

func testUser(id string, role domain.Role) *domain.User {
	return &domain.User{
		ID:    id,
		Name:  "User " + id,
		Email: id + "@example.com",
		Role:  role,
	}
}

func TestCreateTicketDefaults(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	env := newTicketTestEnv(t, creator)

	ticket, similar, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title:       "Printer is on fire",
		Description: "Smoke everywhere",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.TicketCategoryGeneral, ticket.Category)
	assert.Equal(t, creator.ID, ticket.CreatorID)
	assert.Empty(t, similar)

	entries := env.activity.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionCreatedTicket, entries[0].Action)
	assert.Equal(t, creator.ID, entries[0].ActorID)
	require.NotNil(t, entries[0].TicketID)
	assert.Equal(t, ticket.ID, *entries[0].TicketID)
}

func TestCreateTicketValidation(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	env := newTicketTestEnv(t, creator)

	_, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title:       "   ",
		Description: "body",
	})
	assert.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"))

	_, _, err = env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title:       "title",
		Description: "body",
		Priority:    "EXTREME",
	})
	assert.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"))

	assert.Empty(t, env.activity.snapshot())
}

func TestCreateTicketSimilarHint(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	env := newTicketTestEnv(t, creator)
	env.tickets.similar = []domain.Ticket{
		{ID: "t-old", Title: "Printer broken"},
	}

	_, similar, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title:       "Printer broken again",
		Description: "same as before",
	})
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, "t-old", similar[0].ID)
}

func TestAssignTicketRequiresStaffActor(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	support := testUser("u-2", domain.RoleSupport)
	env := newTicketTestEnv(t, creator, support)

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)

	_, err = env.service.AssignTicket(context.Background(), creator, ticket.ID, support.ID)
	assert.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"))
}

func TestAssignTicketRejectsNonStaffAssignee(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	admin := testUser("u-2", domain.RoleAdmin)
	env := newTicketTestEnv(t, creator, admin)

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)

	_, err = env.service.AssignTicket(context.Background(), admin, ticket.ID, creator.ID)
	assert.True(t, errorutil.IsCode(err, "INVALID_ASSIGNEE"))

	_, err = env.service.AssignTicket(context.Background(), admin, ticket.ID, "missing")
	assert.True(t, errorutil.IsCode(err, "INVALID_ASSIGNEE"))
}

func TestAssignTicketAdvancesOpenStatus(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	admin := testUser("u-2", domain.RoleAdmin)
	support := testUser("u-3", domain.RoleSupport)
	env := newTicketTestEnv(t, creator, admin, support)

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)

	assigned, err := env.service.AssignTicket(context.Background(), admin, ticket.ID, support.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, assigned.Status)
	require.NotNil(t, assigned.AssigneeID)
	assert.Equal(t, support.ID, *assigned.AssigneeID)

	// Reassignment of a non-OPEN ticket must not touch the status.
	_, err = env.service.UpdateStatus(context.Background(), admin, ticket.ID, domain.TicketStatusOpen)
	require.NoError(t, err)
	_, err = env.service.UpdateStatus(context.Background(), admin, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	reassigned, err := env.service.AssignTicket(context.Background(), admin, ticket.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, reassigned.Status)
}

func TestUpdateStatusPermissions(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	stranger := testUser("u-2", domain.RoleUser)
	env := newTicketTestEnv(t, creator, stranger)

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)

	_, err = env.service.UpdateStatus(context.Background(), stranger, ticket.ID, domain.TicketStatusClosed)
	assert.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"))

	_, err = env.service.UpdateStatus(context.Background(), creator, ticket.ID, "BROKEN")
	assert.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"))

	updated, err := env.service.UpdateStatus(context.Background(), creator, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
}

func TestUpdateStatusRecordsLedgerReceipt(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	env := newTicketTestEnv(t, creator)

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)

	_, err = env.service.UpdateStatus(context.Background(), creator, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, err := env.tickets.GetByID(context.Background(), ticket.ID)
		return err == nil && stored.TxRef != nil && *stored.TxRef == "0xdeadbeef"
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, env.receipts.callCount())
}

func TestUpdateStatusLedgerFailureIsSwallowed(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	env := newTicketTestEnv(t, creator)
	env.receipts.failErr = assert.AnError

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)

	updated, err := env.service.UpdateStatus(context.Background(), creator, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	assert.Nil(t, updated.TxRef)
}

func TestReopenTerminalTicket(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	env := newTicketTestEnv(t, creator)

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)

	_, err = env.service.UpdateStatus(context.Background(), creator, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	reopened, err := env.service.UpdateStatus(context.Background(), creator, ticket.ID, domain.TicketStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, reopened.Status)

	actions := actionsOf(env.activity.snapshot())
	assert.Contains(t, actions, domain.ActionClosedTicket)
	assert.Contains(t, actions, domain.ActionReopenedTicket)
}

func TestAddCommentBlockedOnTerminalTicket(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	admin := testUser("u-2", domain.RoleAdmin)
	env := newTicketTestEnv(t, creator, admin)

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)
	_, err = env.service.UpdateStatus(context.Background(), creator, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	// Even administrators cannot comment on a terminal ticket.
	_, err = env.service.AddComment(context.Background(), admin, ticket.ID, "still broken?")
	assert.True(t, errorutil.IsCode(err, "INVALID_STATE"))
}

func TestAddCommentPermissions(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	stranger := testUser("u-2", domain.RoleUser)
	env := newTicketTestEnv(t, creator, stranger)

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)

	_, err = env.service.AddComment(context.Background(), stranger, ticket.ID, "me too")
	assert.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"))

	_, err = env.service.AddComment(context.Background(), creator, ticket.ID, "   ")
	assert.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"))

	comment, err := env.service.AddComment(context.Background(), creator, ticket.ID, "any update?")
	require.NoError(t, err)
	assert.Equal(t, creator.ID, comment.AuthorID)

	actions := actionsOf(env.activity.snapshot())
	assert.Contains(t, actions, domain.ActionAddedComment)
}

func TestUpdatePriorityRecordsActivity(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	env := newTicketTestEnv(t, creator)

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)

	updated, err := env.service.UpdatePriority(context.Background(), creator, ticket.ID, domain.TicketPriorityUrgent)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityUrgent, updated.Priority)

	actions := actionsOf(env.activity.snapshot())
	assert.Contains(t, actions, domain.ActionChangedPriority)
}

func TestDeleteTicket(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	stranger := testUser("u-2", domain.RoleUser)
	env := newTicketTestEnv(t, creator, stranger)

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)

	err = env.service.DeleteTicket(context.Background(), stranger, ticket.ID)
	assert.True(t, errorutil.IsCode(err, "PERMISSION_DENIED"))

	require.NoError(t, env.service.DeleteTicket(context.Background(), creator, ticket.ID))
	_, err = env.service.GetTicket(context.Background(), ticket.ID)
	assert.True(t, errorutil.IsCode(err, "NOT_FOUND"))

	entries := env.activity.snapshot()
	last := entries[len(entries)-1]
	assert.Equal(t, domain.ActionDeletedTicket, last.Action)
	assert.Nil(t, last.TicketID)
	assert.Equal(t, ticket.ID, last.Details["ticket_id"])
}

func TestRecordExternalReceipt(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	env := newTicketTestEnv(t, creator)

	ticket, _, err := env.service.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title: "help", Description: "please",
	})
	require.NoError(t, err)

	_, err = env.service.RecordExternalReceipt(context.Background(), ticket.ID, "  ")
	assert.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"))

	updated, err := env.service.RecordExternalReceipt(context.Background(), ticket.ID, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, updated.TxRef)
	assert.Equal(t, "0xabc", *updated.TxRef)
}

func TestTicketLifecycleScenario(t *testing.T) {
	creator := testUser("u-1", domain.RoleUser)
	admin := testUser("u-2", domain.RoleAdmin)
	support := testUser("u-3", domain.RoleSupport)
	env := newTicketTestEnv(t, creator, admin, support)
	ctx := context.Background()

	ticket, _, err := env.service.CreateTicket(ctx, creator, TicketCreateInput{
		Title:       "VPN down",
		Description: "cannot connect since morning",
		Priority:    domain.TicketPriorityHigh,
		Category:    domain.TicketCategoryTechnical,
	})
	require.NoError(t, err)

	assigned, err := env.service.AssignTicket(ctx, admin, ticket.ID, support.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, assigned.Status)

	_, err = env.service.AddComment(ctx, support, ticket.ID, "restarting the gateway")
	require.NoError(t, err)

	resolved, err := env.service.UpdateStatus(ctx, support, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)

	_, err = env.service.AddComment(ctx, creator, ticket.ID, "thanks")
	assert.True(t, errorutil.IsCode(err, "INVALID_STATE"))

	actions := actionsOf(env.activity.snapshot())
	assert.Equal(t, []domain.ActivityAction{
		domain.ActionCreatedTicket,
		domain.ActionAssignedTicket,
		domain.ActionAddedComment,
		domain.ActionResolvedTicket,
	}, actions)
}

func actionsOf(entries []domain.ActivityLogEntry) []domain.ActivityAction {
	result := make([]domain.ActivityAction, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.Action)
	}
	return result
}

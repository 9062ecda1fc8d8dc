package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func user(id string, role domain.Role) *domain.User {
	return &domain.User{ID: id, Role: role}
}

func ticket(creatorID string, assigneeID *string, status domain.TicketStatus) *domain.Ticket {
	return &domain.Ticket{ID: "t-1", CreatorID: creatorID, AssigneeID: assigneeID, Status: status}
}

func TestCanComment(t *testing.T) {
	e := NewEvaluator(AssignPolicyPermissive)
	assigneeID := "u-3"
	open := ticket("u-1", &assigneeID, domain.TicketStatusOpen)

	assert.True(t, e.CanComment(user("u-1", domain.RoleUser), open), "creator")
	assert.True(t, e.CanComment(user("u-3", domain.RoleUser), open), "assignee")
	assert.True(t, e.CanComment(user("u-9", domain.RoleSupport), open), "support")
	assert.True(t, e.CanComment(user("u-9", domain.RoleAdmin), open), "admin")
	assert.False(t, e.CanComment(user("u-9", domain.RoleUser), open), "stranger")

	resolved := ticket("u-1", &assigneeID, domain.TicketStatusResolved)
	assert.False(t, e.CanComment(user("u-9", domain.RoleAdmin), resolved), "terminal blocks everyone")
	assert.False(t, e.CanComment(user("u-1", domain.RoleUser), resolved))
}

func TestCanAssignPolicies(t *testing.T) {
	permissive := NewEvaluator(AssignPolicyPermissive)
	assert.True(t, permissive.CanAssign(user("u-1", domain.RoleAdmin)))
	assert.True(t, permissive.CanAssign(user("u-1", domain.RoleSupport)))
	assert.False(t, permissive.CanAssign(user("u-1", domain.RoleUser)))

	strict := NewEvaluator(AssignPolicyStrict)
	assert.True(t, strict.CanAssign(user("u-1", domain.RoleAdmin)))
	assert.False(t, strict.CanAssign(user("u-1", domain.RoleSupport)))
	assert.False(t, strict.CanAssign(user("u-1", domain.RoleUser)))
}

func TestCanChangeStatus(t *testing.T) {
	e := NewEvaluator(AssignPolicyPermissive)
	tk := ticket("u-1", nil, domain.TicketStatusOpen)

	assert.True(t, e.CanChangeStatus(user("u-1", domain.RoleUser), tk), "creator")
	assert.True(t, e.CanChangeStatus(user("u-9", domain.RoleSupport), tk))
	assert.False(t, e.CanChangeStatus(user("u-9", domain.RoleUser), tk))
}

func TestCanDelete(t *testing.T) {
	e := NewEvaluator(AssignPolicyPermissive)
	assigneeID := "u-3"
	tk := ticket("u-1", &assigneeID, domain.TicketStatusOpen)

	assert.True(t, e.CanDelete(user("u-9", domain.RoleAdmin), tk))
	assert.True(t, e.CanDelete(user("u-1", domain.RoleUser), tk), "creator")
	assert.True(t, e.CanDelete(user("u-3", domain.RoleUser), tk), "assignee")
	assert.False(t, e.CanDelete(user("u-9", domain.RoleSupport), tk), "unrelated support")
}

func TestCanChangeRole(t *testing.T) {
	e := NewEvaluator(AssignPolicyPermissive)
	admin := user("u-1", domain.RoleAdmin)

	assert.True(t, e.CanChangeRole(admin, user("u-2", domain.RoleUser)))
	assert.False(t, e.CanChangeRole(admin, admin), "never on own account")
	assert.False(t, e.CanChangeRole(user("u-3", domain.RoleSupport), user("u-2", domain.RoleUser)))
}

func TestEvaluatorFailsClosed(t *testing.T) {
	e := NewEvaluator(AssignPolicyPermissive)
	tk := ticket("u-1", nil, domain.TicketStatusOpen)

	assert.False(t, e.CanComment(nil, tk))
	assert.False(t, e.CanComment(user("u-1", domain.RoleAdmin), nil))
	assert.False(t, e.CanAssign(nil))
	assert.False(t, e.CanChangeStatus(nil, tk))
	assert.False(t, e.CanDelete(nil, tk))
	assert.False(t, e.CanChangeRole(nil, nil))
}

func TestParseAssignPolicy(t *testing.T) {
	assert.Equal(t, AssignPolicyStrict, ParseAssignPolicy("strict"))
	assert.Equal(t, AssignPolicyPermissive, ParseAssignPolicy("permissive"))
	assert.Equal(t, AssignPolicyPermissive, ParseAssignPolicy(""))
	assert.Equal(t, AssignPolicyPermissive, ParseAssignPolicy("whatever"))
}

// Package permission holds the pure predicate set gating ticket operations.
// Evaluators perform no I/O and fail closed: any missing actor or ticket
// state yields a denial.
package permission

import "github.com/spec-kit/helpdesk/internal/domain"

// AssignPolicy selects which roles may assign tickets.
type AssignPolicy string

const (
	// AssignPolicyStrict restricts assignment to administrators.
	AssignPolicyStrict AssignPolicy = "strict"
	// AssignPolicyPermissive also admits support staff.
	AssignPolicyPermissive AssignPolicy = "permissive"
)

// ParseAssignPolicy maps a config value to a policy, defaulting to permissive.
func ParseAssignPolicy(value string) AssignPolicy {
	if value == string(AssignPolicyStrict) {
		return AssignPolicyStrict
	}
	return AssignPolicyPermissive
}

// Evaluator decides whether an actor may perform a given ticket operation.
type Evaluator struct {
	assignPolicy AssignPolicy
}

// NewEvaluator constructs an evaluator with the given assignment policy.
func NewEvaluator(policy AssignPolicy) *Evaluator {
	if policy != AssignPolicyStrict {
		policy = AssignPolicyPermissive
	}
	return &Evaluator{assignPolicy: policy}
}

// CanComment reports whether the actor may comment on the ticket. Comments
// are blocked unconditionally once the ticket is resolved or closed.
func (e *Evaluator) CanComment(actor *domain.User, ticket *domain.Ticket) bool {
	if actor == nil || ticket == nil {
		return false
	}
	if ticket.Status.IsTerminal() {
		return false
	}
	if actor.Role == domain.RoleAdmin || actor.Role == domain.RoleSupport {
		return true
	}
	return actor.ID == ticket.CreatorID || isAssignee(actor, ticket)
}

// CanAssign reports whether the actor may assign tickets under the
// configured policy.
func (e *Evaluator) CanAssign(actor *domain.User) bool {
	if actor == nil {
		return false
	}
	switch e.assignPolicy {
	case AssignPolicyStrict:
		return actor.Role == domain.RoleAdmin
	default:
		return actor.Role == domain.RoleAdmin || actor.Role == domain.RoleSupport
	}
}

// CanChangeStatus reports whether the actor may change the ticket status.
func (e *Evaluator) CanChangeStatus(actor *domain.User, ticket *domain.Ticket) bool {
	if actor == nil || ticket == nil {
		return false
	}
	if actor.Role == domain.RoleAdmin || actor.Role == domain.RoleSupport {
		return true
	}
	return actor.ID == ticket.CreatorID || isAssignee(actor, ticket)
}

// CanDelete reports whether the actor may hard-delete the ticket.
func (e *Evaluator) CanDelete(actor *domain.User, ticket *domain.Ticket) bool {
	if actor == nil || ticket == nil {
		return false
	}
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return actor.ID == ticket.CreatorID || isAssignee(actor, ticket)
}

// CanChangeRole reports whether the actor may change the target's role.
// Administrators only, and never on their own account.
func (e *Evaluator) CanChangeRole(actor, target *domain.User) bool {
	if actor == nil || target == nil {
		return false
	}
	return actor.Role == domain.RoleAdmin && actor.ID != target.ID
}

func isAssignee(actor *domain.User, ticket *domain.Ticket) bool {
	return ticket.AssigneeID != nil && *ticket.AssigneeID == actor.ID
}

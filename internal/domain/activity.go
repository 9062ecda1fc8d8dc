package domain

import "time"

// ActivityAction captures what a log entry records.
type ActivityAction string

const (
	ActionCreatedTicket   ActivityAction = "created_ticket"
	ActionUpdatedTicket   ActivityAction = "updated_ticket"
	ActionAddedComment    ActivityAction = "added_comment"
	ActionChangedStatus   ActivityAction = "changed_status"
	ActionChangedPriority ActivityAction = "changed_priority"
	ActionAssignedTicket  ActivityAction = "assigned_ticket"
	ActionResolvedTicket  ActivityAction = "resolved_ticket"
	ActionClosedTicket    ActivityAction = "closed_ticket"
	ActionReopenedTicket  ActivityAction = "reopened_ticket"
	ActionDeletedTicket   ActivityAction = "deleted_ticket"
)

// ActivityLogEntry is an immutable audit trail row. Entries are never
// mutated or deleted. TicketID is nil for actions that outlive the ticket.
type ActivityLogEntry struct {
	ID        string
	Action    ActivityAction
	ActorID   string
	TicketID  *string
	Details   map[string]any
	CreatedAt time.Time
}

// models/reminder_state.go
package models

// ReminderStatus is the delivery state of a task's reminder. All writes go
// through the transition table below; "claimed" is transient and only ever
// held for the duration of one delivery attempt.
type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderClaimed ReminderStatus = "claimed"
	ReminderSent    ReminderStatus = "sent"
	ReminderFailed  ReminderStatus = "failed"
	ReminderSnoozed ReminderStatus = "snoozed"
)

// reminderTransitions enumerates every legal state change. The "-> pending"
// arcs are the re-enable path: updating a task's reminder configuration
// always resets the reminder to pending. claimed -> claimed is the recovery
// arc for a claim orphaned by a crash mid-delivery: only the manual trigger
// takes it.
var reminderTransitions = map[ReminderStatus][]ReminderStatus{
	ReminderPending: {ReminderClaimed, ReminderSnoozed},
	ReminderSnoozed: {ReminderClaimed, ReminderPending},
	ReminderClaimed: {ReminderSent, ReminderFailed, ReminderPending, ReminderClaimed},
	ReminderFailed:  {ReminderClaimed, ReminderPending},
	ReminderSent:    {ReminderClaimed, ReminderPending},
}

// CanTransition reports whether from -> to is a legal reminder-status change.
func CanTransition(from, to ReminderStatus) bool {
	for _, next := range reminderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ClaimableFrom lists the statuses a batch dispatch may claim a task from.
// Failed and sent tasks are excluded: they only re-enter delivery through an
// explicit single-task trigger.
func ClaimableFrom() []ReminderStatus {
	return []ReminderStatus{ReminderPending, ReminderSnoozed}
}

// ManualClaimFrom lists the statuses a manual trigger may claim a task from.
// It includes claimed so a claim orphaned by a crash between claim and
// outcome can be re-driven; the due query never sees such rows.
func ManualClaimFrom() []ReminderStatus {
	return []ReminderStatus{ReminderPending, ReminderSnoozed, ReminderFailed, ReminderSent, ReminderClaimed}
}

func (s ReminderStatus) Valid() bool {
	switch s {
	case ReminderPending, ReminderClaimed, ReminderSent, ReminderFailed, ReminderSnoozed:
		return true
	}
	return false
}

// services/store.go
package services

import (
	"time"

	"github.com/google/uuid"

	"quotebuilder-backend/models"
)

// TaskFilter narrows the per-quote task listing.
type TaskFilter struct {
	Status      string
	Priority    string
	Search      string // case-insensitive substring over title/description
	OverdueOnly bool
}

// TaskStore is the narrow persistence contract the reminder core needs for
// tasks. Reminder-status writes go through the claim/outcome methods so the
// transition rules in models.CanTransition hold everywhere.
type TaskStore interface {
	Create(task *models.Task) error
	FindByID(id uuid.UUID) (*models.Task, error)
	// FindByAssignedPhone resolves an inbound reply to the most recently
	// updated reminder-enabled task assigned to that phone.
	FindByAssignedPhone(phone string) (*models.Task, error)
	// FindDueReminders returns up to limit tasks on the channel whose
	// reminder is enabled, pending or snoozed, and due at or before now,
	// oldest due first.
	FindDueReminders(channel string, limit int, now time.Time) ([]models.Task, error)
	// Save writes a full task row; callers must have run the scheduler's
	// ApplyReminderFields when a reminder-relevant field changed.
	Save(task *models.Task) error
	Update(id uuid.UUID, fields map[string]interface{}) error
	// UpdateStatus changes only the task status; it can never touch a
	// reminder-scheduling field.
	UpdateStatus(id uuid.UUID, status string) error
	// ClaimReminder atomically moves the reminder from one of the given
	// statuses to claimed. Returns false when another run won the claim.
	ClaimReminder(id uuid.UUID, from []models.ReminderStatus) (bool, error)
	// MarkReminderSent records a successful delivery: pending with a new
	// fire time when next is non-nil, terminal sent otherwise.
	MarkReminderSent(id uuid.UUID, next *time.Time) error
	// MarkReminderFailed records a failed delivery, leaving next_reminder_at
	// untouched.
	MarkReminderFailed(id uuid.UUID, errMsg string) error
	// SnoozeReminder parks a pending reminder until the given instant.
	SnoozeReminder(id uuid.UUID, until time.Time) (bool, error)
	Delete(id uuid.UUID) error
	ListByQuote(quoteID uuid.UUID, filter TaskFilter, now time.Time) ([]models.Task, error)
	QuoteExists(quoteID uuid.UUID) (bool, error)
}

// ReminderLogStore is append-only: no update or delete is exposed.
type ReminderLogStore interface {
	Append(entry *models.ReminderLog) error
	FindByTask(taskID uuid.UUID, limit int) ([]models.ReminderLog, error)
}

// TransactionRunner scopes a task update and its audit-log append to one
// transaction so a crash cannot leave a half-recorded attempt.
type TransactionRunner interface {
	InTransaction(fn func(tasks TaskStore, logs ReminderLogStore) error) error
}

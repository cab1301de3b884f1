// models/task.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task statuses
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusBlocked    = "blocked"
)

// Task priorities
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Reminder channels
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
	ChannelNone     = "none"
)

// Reminder frequencies
const (
	FrequencyOnce      = "once"
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
	FrequencyBeforeDue = "before_due"
)

type Task struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	QuoteID   uuid.UUID `gorm:"type:uuid;index;not null"`
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null"`

	Title       string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"type:varchar(20);default:'pending'"` // pending, in_progress, completed, blocked
	Priority    string `gorm:"type:varchar(10);default:'medium'"`  // low, medium, high

	DueAt         *time.Time
	AssignedTo    string
	AssignedPhone string

	ReminderEnabled   bool           `gorm:"default:false;index"`
	ReminderChannel   string         `gorm:"type:varchar(20);default:'whatsapp'"` // whatsapp, email, none
	ReminderFrequency string         `gorm:"type:varchar(20);default:'once'"`     // once, daily, weekly, before_due
	NextReminderAt    *time.Time     `gorm:"index"`
	ReminderStatus    ReminderStatus `gorm:"type:varchar(20);default:'pending'"`
	ReminderError     string         `gorm:"type:text"`

	CreatedBy string

	gorm.Model
}

func (t *Task) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

// Overdue reports whether the task has a due date in the past and is not yet
// completed.
func (t *Task) Overdue(now time.Time) bool {
	return t.DueAt != nil && t.DueAt.Before(now) && t.Status != TaskStatusCompleted
}

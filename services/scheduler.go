// services/scheduler.go
package services

import (
	"fmt"
	"strings"
	"time"

	"quotebuilder-backend/models"
	"quotebuilder-backend/utils"
)

const beforeDueLead = 24 * time.Hour

// ComputeNextFireTime returns the instant the task's reminder should next
// fire, or nil when the reminder is disabled. All arithmetic is relative to
// the single now passed in; no timezone conversion happens here.
func ComputeNextFireTime(task *models.Task, now time.Time) *time.Time {
	if !task.ReminderEnabled {
		return nil
	}

	switch {
	case task.ReminderFrequency == models.FrequencyBeforeDue && task.DueAt != nil:
		candidate := task.DueAt.Add(-beforeDueLead)
		if !candidate.After(now) {
			candidate = now
		}
		return &candidate

	case task.ReminderFrequency == models.FrequencyDaily:
		// Cadence is measured from the moment of computation, not from the
		// previous fire.
		candidate := now.Add(24 * time.Hour)
		return &candidate

	case task.ReminderFrequency == models.FrequencyWeekly:
		candidate := now.Add(7 * 24 * time.Hour)
		return &candidate

	default:
		// once, or any frequency with nothing better to go on. A one-shot
		// reminder that already has a fire time keeps it unchanged.
		if task.NextReminderAt != nil {
			t := *task.NextReminderAt
			return &t
		}
		if task.DueAt != nil && task.DueAt.After(now) {
			candidate := task.DueAt.Add(-beforeDueLead)
			if !candidate.After(now) {
				candidate = now
			}
			return &candidate
		}
		candidate := now
		return &candidate
	}
}

// ApplyReminderFields normalizes the five reminder fields on the task. It
// runs on create and on every update that touches a reminder-relevant field;
// this is the only place the I1/I2 invariants are established.
func ApplyReminderFields(task *models.Task, now time.Time) {
	if !task.ReminderEnabled {
		task.NextReminderAt = nil
		task.ReminderStatus = models.ReminderPending
		task.ReminderError = ""
		return
	}

	if task.ReminderFrequency == "" {
		task.ReminderFrequency = models.FrequencyOnce
	}
	task.ReminderStatus = models.ReminderPending
	task.ReminderError = ""
	task.NextReminderAt = ComputeNextFireTime(task, now)
}

// NextAfterSend computes the fire time following a successful delivery, as
// if the reminder were re-enabled at now. nil means the reminder is done and
// the task moves to the terminal sent state.
func NextAfterSend(task *models.Task, now time.Time) *time.Time {
	switch task.ReminderFrequency {
	case models.FrequencyDaily:
		next := now.Add(24 * time.Hour)
		return &next
	case models.FrequencyWeekly:
		next := now.Add(7 * 24 * time.Hour)
		return &next
	case models.FrequencyBeforeDue:
		// Only stays live when triggered early, ahead of the lead window.
		if task.DueAt != nil {
			candidate := task.DueAt.Add(-beforeDueLead)
			if candidate.After(now) {
				return &candidate
			}
		}
		return nil
	default:
		return nil
	}
}

// BuildReminderMessage renders the outbound notification body from the task.
func BuildReminderMessage(task *models.Task, now time.Time) string {
	due := "not set"
	if task.DueAt != nil {
		due = task.DueAt.Format("02 Jan 2006")
		if days := utils.DaysBetween(now, *task.DueAt); days > 0 {
			due = fmt.Sprintf("%s (in %d days)", due, days)
		} else if days < 0 {
			due = fmt.Sprintf("%s (%d days overdue)", due, -days)
		} else {
			due = due + " (today)"
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reminder: task \"%s\" on quote %s\n", task.Title, task.QuoteID)
	fmt.Fprintf(&b, "Due: %s\n", due)
	fmt.Fprintf(&b, "Status: %s\n", task.Status)
	b.WriteString("Reply DONE, PROGRESS or BLOCKED to update this task.")
	return b.String()
}

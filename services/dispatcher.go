// services/dispatcher.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"quotebuilder-backend/models"
)

const (
	defaultSendTimeout = 15 * time.Second
	defaultBatchBudget = 5 * time.Minute
)

// Dispatcher drives outbound reminder delivery: batch runs over the due pool
// and explicit single-task triggers. Every attempt claims the task first so
// concurrent runs over overlapping due windows cannot deliver twice.
type Dispatcher struct {
	tasks     TaskStore
	logs      ReminderLogStore
	tx        TransactionRunner
	notifiers *NotifierSet
	clock     Clock

	sendTimeout time.Duration
	batchBudget time.Duration
}

type DispatchResult struct {
	Channel   string `json:"channel"`
	Processed int    `json:"processed_count"`
}

func NewDispatcher(tasks TaskStore, logs ReminderLogStore, tx TransactionRunner, notifiers *NotifierSet, clock Clock) *Dispatcher {
	return &Dispatcher{
		tasks:       tasks,
		logs:        logs,
		tx:          tx,
		notifiers:   notifiers,
		clock:       clock,
		sendTimeout: defaultSendTimeout,
		batchBudget: defaultBatchBudget,
	}
}

// ProcessDue fetches up to limit due reminders on the channel and attempts
// each one independently. A single task's failure is recorded against that
// task and never aborts its siblings; per-task outcomes are only visible in
// the reminder log. Processed counts attempted tasks.
func (d *Dispatcher) ProcessDue(ctx context.Context, channel string, limit int) (DispatchResult, error) {
	result := DispatchResult{Channel: channel}

	// "none" short-circuits before any query or dispatch attempt.
	if channel == models.ChannelNone {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.batchBudget)
	defer cancel()

	now := d.clock.Now()
	due, err := d.tasks.FindDueReminders(channel, limit, now)
	if err != nil {
		return result, err
	}

	for i := range due {
		if ctx.Err() != nil {
			log.Printf("dispatch batch budget exhausted after %d of %d tasks", result.Processed, len(due))
			break
		}
		task := due[i]
		result.Processed++

		claimed, err := d.tasks.ClaimReminder(task.ID, models.ClaimableFrom())
		if err != nil {
			log.Printf("task %s: claim failed: %v", task.ID, err)
			continue
		}
		if !claimed {
			// Another run won this task.
			continue
		}

		if err := d.deliver(ctx, &task, now); err != nil {
			log.Printf("task %s: reminder delivery failed: %v", task.ID, err)
		}
	}

	return result, nil
}

// TriggerOne runs the single-task delivery sequence. Unlike the batch path
// it may claim failed and sent reminders, which is how a failed task
// re-enters delivery.
func (d *Dispatcher) TriggerOne(ctx context.Context, taskID uuid.UUID) error {
	task, err := d.tasks.FindByID(taskID)
	if err != nil {
		return err
	}
	if !task.ReminderEnabled {
		return NewValidationError("task %s does not have reminders enabled", taskID)
	}
	if task.ReminderChannel == models.ChannelNone {
		return NewValidationError("task %s has reminder channel none", taskID)
	}

	claimed, err := d.tasks.ClaimReminder(task.ID, models.ManualClaimFrom())
	if err != nil {
		return err
	}
	if !claimed {
		return NewValidationError("task %s already has a delivery in progress", taskID)
	}

	return d.deliver(ctx, task, d.clock.Now())
}

// deliver runs one attempt against an already-claimed task and records the
// outcome: one task-state update and one log append inside one transaction.
func (d *Dispatcher) deliver(ctx context.Context, task *models.Task, now time.Time) error {
	body := BuildReminderMessage(task, now)

	notifier, err := d.notifiers.For(task.ReminderChannel)
	if err != nil {
		return d.recordFailure(task, body, now, err)
	}
	if task.AssignedPhone == "" {
		return d.recordFailure(task, body, now, NewValidationError("task has no assigned phone"))
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	providerID, err := notifier.Send(sendCtx, task.AssignedPhone, body)
	if err != nil {
		return d.recordFailure(task, body, now, err)
	}

	next := NextAfterSend(task, now)
	return d.tx.InTransaction(func(tasks TaskStore, logs ReminderLogStore) error {
		if err := tasks.MarkReminderSent(task.ID, next); err != nil {
			return err
		}
		return logs.Append(&models.ReminderLog{
			TaskID:            task.ID,
			Channel:           task.ReminderChannel,
			Status:            models.ReminderSent,
			Direction:         models.DirectionOutbound,
			MessageBody:       body,
			ProviderMessageID: providerID,
			Metadata:          taskMetadata(task),
			SentAt:            now,
		})
	})
}

// recordFailure stamps the log with the same now as the delivery attempt.
func (d *Dispatcher) recordFailure(task *models.Task, body string, now time.Time, cause error) error {
	txErr := d.tx.InTransaction(func(tasks TaskStore, logs ReminderLogStore) error {
		if err := tasks.MarkReminderFailed(task.ID, cause.Error()); err != nil {
			return err
		}
		return logs.Append(&models.ReminderLog{
			TaskID:       task.ID,
			Channel:      task.ReminderChannel,
			Status:       models.ReminderFailed,
			Direction:    models.DirectionOutbound,
			MessageBody:  body,
			ErrorMessage: cause.Error(),
			Metadata:     taskMetadata(task),
			SentAt:       now,
		})
	})
	if txErr != nil {
		log.Printf("task %s: failed to record delivery failure: %v", task.ID, txErr)
	}
	return cause
}

func taskMetadata(task *models.Task) models.JSONB {
	return models.JSONB{
		"quote_id":    task.QuoteID.String(),
		"company_id":  task.CompanyID.String(),
		"assigned_to": task.AssignedTo,
	}
}

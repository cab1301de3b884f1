// services/reply.go
package services

import (
	"strings"

	"github.com/google/uuid"

	"quotebuilder-backend/models"
)

// ReplyService interprets inbound free-text replies and records them in the
// audit log.
type ReplyService struct {
	tasks TaskStore
	tx    TransactionRunner
	clock Clock
}

func NewReplyService(tasks TaskStore, tx TransactionRunner, clock Clock) *ReplyService {
	return &ReplyService{tasks: tasks, tx: tx, clock: clock}
}

// ClassifyReply maps a reply message to a task status, or "" for no change.
// Keywords are checked in a fixed order: a message containing both "done"
// and "blocked" resolves to completed.
func ClassifyReply(message string) string {
	normalized := strings.ToLower(strings.TrimSpace(message))
	switch {
	case strings.Contains(normalized, "done"), strings.Contains(normalized, "complete"):
		return models.TaskStatusCompleted
	case strings.Contains(normalized, "progress"), strings.Contains(normalized, "working"):
		return models.TaskStatusInProgress
	case strings.Contains(normalized, "blocked"):
		return models.TaskStatusBlocked
	default:
		return ""
	}
}

// RecordReply appends exactly one inbound log row for the reply and, when the
// classified status differs from the task's current one, persists the new
// status. The status update is a plain field write that cannot touch any
// reminder-scheduling field.
func (r *ReplyService) RecordReply(taskID uuid.UUID, message, from string, providerPayload map[string]interface{}) error {
	task, err := r.tasks.FindByID(taskID)
	if err != nil {
		return err
	}

	newStatus := ClassifyReply(message)

	metadata := taskMetadata(task)
	if len(providerPayload) > 0 {
		metadata["provider_payload"] = providerPayload
	}

	return r.tx.InTransaction(func(tasks TaskStore, logs ReminderLogStore) error {
		// The inbound row is a pure audit record, appended whether or not
		// the reply changed anything.
		if err := logs.Append(&models.ReminderLog{
			TaskID:      task.ID,
			Channel:     task.ReminderChannel,
			Status:      models.ReminderPending,
			Direction:   models.DirectionInbound,
			MessageBody: message,
			ReplyFrom:   from,
			Metadata:    metadata,
			SentAt:      r.clock.Now(),
		}); err != nil {
			return err
		}

		if newStatus != "" && newStatus != task.Status {
			return tasks.UpdateStatus(task.ID, newStatus)
		}
		return nil
	})
}

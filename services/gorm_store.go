// services/gorm_store.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"quotebuilder-backend/models"
)

// GormStore backs TaskStore, ReminderLogStore and TransactionRunner with one
// Postgres connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InTransaction(fn func(tasks TaskStore, logs ReminderLogStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		scoped := &GormStore{db: tx}
		return fn(scoped, scoped)
	})
}

func (s *GormStore) Create(task *models.Task) error {
	return s.db.Create(task).Error
}

func (s *GormStore) FindByID(id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := s.db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "task", ID: id.String()}
		}
		return nil, err
	}
	return &task, nil
}

func (s *GormStore) FindByAssignedPhone(phone string) (*models.Task, error) {
	var task models.Task
	err := s.db.Where("assigned_phone = ? AND reminder_enabled = ?", phone, true).
		Order("updated_at DESC").
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "task", ID: phone}
		}
		return nil, err
	}
	return &task, nil
}

func (s *GormStore) FindDueReminders(channel string, limit int, now time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.
		Where("reminder_enabled = ?", true).
		Where("reminder_channel = ?", channel).
		Where("reminder_status IN ?", []models.ReminderStatus{models.ReminderPending, models.ReminderSnoozed}).
		Where("next_reminder_at <= ?", now).
		Order("next_reminder_at ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

func (s *GormStore) Save(task *models.Task) error {
	return s.db.Save(task).Error
}

func (s *GormStore) Update(id uuid.UUID, fields map[string]interface{}) error {
	result := s.db.Model(&models.Task{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Resource: "task", ID: id.String()}
	}
	return nil
}

func (s *GormStore) UpdateStatus(id uuid.UUID, status string) error {
	return s.Update(id, map[string]interface{}{"status": status})
}

func (s *GormStore) ClaimReminder(id uuid.UUID, from []models.ReminderStatus) (bool, error) {
	for _, f := range from {
		if !models.CanTransition(f, models.ReminderClaimed) {
			return false, fmt.Errorf("illegal claim from %s", f)
		}
	}
	result := s.db.Model(&models.Task{}).
		Where("id = ? AND reminder_enabled = ? AND reminder_status IN ?", id, true, from).
		Update("reminder_status", models.ReminderClaimed)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) MarkReminderSent(id uuid.UUID, next *time.Time) error {
	status := models.ReminderSent
	if next != nil {
		status = models.ReminderPending
	}
	if !models.CanTransition(models.ReminderClaimed, status) {
		return fmt.Errorf("illegal transition claimed -> %s", status)
	}
	return s.Update(id, map[string]interface{}{
		"reminder_status": status,
		"reminder_error":  "",
		"next_reminder_at": next,
	})
}

func (s *GormStore) MarkReminderFailed(id uuid.UUID, errMsg string) error {
	// next_reminder_at deliberately untouched: a failed reminder leaves the
	// due pool until manually re-triggered.
	return s.Update(id, map[string]interface{}{
		"reminder_status": models.ReminderFailed,
		"reminder_error":  errMsg,
	})
}

func (s *GormStore) SnoozeReminder(id uuid.UUID, until time.Time) (bool, error) {
	result := s.db.Model(&models.Task{}).
		Where("id = ? AND reminder_enabled = ? AND reminder_status IN ?",
			id, true, []models.ReminderStatus{models.ReminderPending, models.ReminderSnoozed}).
		Updates(map[string]interface{}{
			"reminder_status":  models.ReminderSnoozed,
			"next_reminder_at": until,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) Delete(id uuid.UUID) error {
	// Reminder logs are not cascade-deleted: the audit trail outlives the task.
	result := s.db.Delete(&models.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Resource: "task", ID: id.String()}
	}
	return nil
}

func (s *GormStore) ListByQuote(quoteID uuid.UUID, filter TaskFilter, now time.Time) ([]models.Task, error) {
	query := s.db.Where("quote_id = ?", quoteID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if filter.OverdueOnly {
		query = query.Where("due_at IS NOT NULL AND due_at < ? AND status <> ?", now, models.TaskStatusCompleted)
	}

	var tasks []models.Task
	err := query.Order("created_at ASC").Find(&tasks).Error
	return tasks, err
}

func (s *GormStore) QuoteExists(quoteID uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Quote{}).Where("id = ?", quoteID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) Append(entry *models.ReminderLog) error {
	return s.db.Create(entry).Error
}

func (s *GormStore) FindByTask(taskID uuid.UUID, limit int) ([]models.ReminderLog, error) {
	var logs []models.ReminderLog
	err := s.db.Where("task_id = ?", taskID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

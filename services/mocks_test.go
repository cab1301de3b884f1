package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quotebuilder-backend/models"
)

// =============================================================================
// Test doubles shared by the service tests
// =============================================================================

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// steppingClock advances by step on every reading, exposing code paths that
// read the clock more than once per operation.
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.now
	c.now = c.now.Add(c.step)
	return current
}

// memoryStore is an in-memory TaskStore + ReminderLogStore +
// TransactionRunner.
type memoryStore struct {
	mu     sync.Mutex
	tasks  map[uuid.UUID]*models.Task
	logs   []models.ReminderLog
	quotes map[uuid.UUID]bool

	// claimDenied simulates losing the claim race for a task.
	claimDenied map[uuid.UUID]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tasks:       make(map[uuid.UUID]*models.Task),
		quotes:      make(map[uuid.UUID]bool),
		claimDenied: make(map[uuid.UUID]bool),
	}
}

func (m *memoryStore) put(task *models.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *task
	m.tasks[task.ID] = &copied
}

func (m *memoryStore) get(id uuid.UUID) models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.tasks[id]
}

func (m *memoryStore) Create(task *models.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	m.put(task)
	return nil
}

func (m *memoryStore) FindByID(id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, &NotFoundError{Resource: "task", ID: id.String()}
	}
	copied := *task
	return &copied, nil
}

func (m *memoryStore) FindByAssignedPhone(phone string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Task
	for _, task := range m.tasks {
		if task.AssignedPhone != phone || !task.ReminderEnabled {
			continue
		}
		if latest == nil || task.UpdatedAt.After(latest.UpdatedAt) {
			latest = task
		}
	}
	if latest == nil {
		return nil, &NotFoundError{Resource: "task", ID: phone}
	}
	copied := *latest
	return &copied, nil
}

func (m *memoryStore) FindDueReminders(channel string, limit int, now time.Time) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []models.Task
	for _, task := range m.tasks {
		if !task.ReminderEnabled || task.ReminderChannel != channel {
			continue
		}
		if task.ReminderStatus != models.ReminderPending && task.ReminderStatus != models.ReminderSnoozed {
			continue
		}
		if task.NextReminderAt == nil || task.NextReminderAt.After(now) {
			continue
		}
		due = append(due, *task)
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextReminderAt.Before(*due[j].NextReminderAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *memoryStore) Save(task *models.Task) error {
	m.put(task)
	return nil
}

func (m *memoryStore) Update(id uuid.UUID, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return &NotFoundError{Resource: "task", ID: id.String()}
	}
	for key, value := range fields {
		switch key {
		case "status":
			task.Status = value.(string)
		case "reminder_status":
			task.ReminderStatus = value.(models.ReminderStatus)
		case "reminder_error":
			task.ReminderError = value.(string)
		case "next_reminder_at":
			if value == nil {
				task.NextReminderAt = nil
			} else {
				task.NextReminderAt = value.(*time.Time)
			}
		default:
			return fmt.Errorf("memoryStore.Update: unhandled field %s", key)
		}
	}
	return nil
}

func (m *memoryStore) UpdateStatus(id uuid.UUID, status string) error {
	return m.Update(id, map[string]interface{}{"status": status})
}

func (m *memoryStore) ClaimReminder(id uuid.UUID, from []models.ReminderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimDenied[id] {
		return false, nil
	}
	task, ok := m.tasks[id]
	if !ok || !task.ReminderEnabled {
		return false, nil
	}
	for _, f := range from {
		if task.ReminderStatus == f {
			task.ReminderStatus = models.ReminderClaimed
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) MarkReminderSent(id uuid.UUID, next *time.Time) error {
	status := models.ReminderSent
	if next != nil {
		status = models.ReminderPending
	}
	return m.Update(id, map[string]interface{}{
		"reminder_status":  status,
		"reminder_error":   "",
		"next_reminder_at": next,
	})
}

func (m *memoryStore) MarkReminderFailed(id uuid.UUID, errMsg string) error {
	return m.Update(id, map[string]interface{}{
		"reminder_status": models.ReminderFailed,
		"reminder_error":  errMsg,
	})
}

func (m *memoryStore) SnoozeReminder(id uuid.UUID, until time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || !task.ReminderEnabled {
		return false, nil
	}
	if task.ReminderStatus != models.ReminderPending && task.ReminderStatus != models.ReminderSnoozed {
		return false, nil
	}
	task.ReminderStatus = models.ReminderSnoozed
	task.NextReminderAt = &until
	return true, nil
}

func (m *memoryStore) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return &NotFoundError{Resource: "task", ID: id.String()}
	}
	delete(m.tasks, id)
	return nil
}

func (m *memoryStore) ListByQuote(quoteID uuid.UUID, filter TaskFilter, now time.Time) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, task := range m.tasks {
		if task.QuoteID != quoteID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(task.Title), needle) &&
				!strings.Contains(strings.ToLower(task.Description), needle) {
				continue
			}
		}
		if filter.OverdueOnly && !task.Overdue(now) {
			continue
		}
		out = append(out, *task)
	}
	return out, nil
}

func (m *memoryStore) QuoteExists(quoteID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quotes[quoteID], nil
}

func (m *memoryStore) Append(entry *models.ReminderLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *memoryStore) FindByTask(taskID uuid.UUID, limit int) ([]models.ReminderLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ReminderLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.logs[i].TaskID == taskID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

func (m *memoryStore) InTransaction(fn func(tasks TaskStore, logs ReminderLogStore) error) error {
	return fn(m, m)
}

func (m *memoryStore) logsFor(taskID uuid.UUID) []models.ReminderLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ReminderLog
	for _, entry := range m.logs {
		if entry.TaskID == taskID {
			out = append(out, entry)
		}
	}
	return out
}

// mockNotifier records sends and fails for destinations listed in failTo.
type mockNotifier struct {
	mu     sync.Mutex
	sent   []string // destinations in send order
	failTo map[string]error
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{failTo: make(map[string]error)}
}

func (n *mockNotifier) Send(ctx context.Context, to, body string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.failTo[to]; ok {
		return "", &DeliveryError{Channel: models.ChannelWhatsApp, Err: err}
	}
	n.sent = append(n.sent, to)
	return fmt.Sprintf("SM%d", len(n.sent)), nil
}

func (n *mockNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quotebuilder-backend/models"
	"quotebuilder-backend/services"
)

type webhookClock struct{ now time.Time }

func (c webhookClock) Now() time.Time { return c.now }

// webhookStore implements just enough of the store contracts to drive the
// webhook's reply path.
type webhookStore struct {
	tasks         map[uuid.UUID]*models.Task
	logs          []models.ReminderLog
	statusUpdates map[uuid.UUID]string
}

func newWebhookStore() *webhookStore {
	return &webhookStore{
		tasks:         make(map[uuid.UUID]*models.Task),
		statusUpdates: make(map[uuid.UUID]string),
	}
}

func (s *webhookStore) Create(task *models.Task) error { s.tasks[task.ID] = task; return nil }

func (s *webhookStore) FindByID(id uuid.UUID) (*models.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, &services.NotFoundError{Resource: "task", ID: id.String()}
	}
	copied := *task
	return &copied, nil
}

func (s *webhookStore) FindByAssignedPhone(phone string) (*models.Task, error) {
	var latest *models.Task
	for _, task := range s.tasks {
		if task.AssignedPhone != phone || !task.ReminderEnabled {
			continue
		}
		if latest == nil || task.UpdatedAt.After(latest.UpdatedAt) {
			latest = task
		}
	}
	if latest == nil {
		return nil, &services.NotFoundError{Resource: "task", ID: phone}
	}
	copied := *latest
	return &copied, nil
}

func (s *webhookStore) FindDueReminders(string, int, time.Time) ([]models.Task, error) {
	return nil, nil
}
func (s *webhookStore) Save(*models.Task) error                        { return nil }
func (s *webhookStore) Update(uuid.UUID, map[string]interface{}) error { return nil }
func (s *webhookStore) UpdateStatus(id uuid.UUID, status string) error {
	s.statusUpdates[id] = status
	return nil
}
func (s *webhookStore) ClaimReminder(uuid.UUID, []models.ReminderStatus) (bool, error) {
	return false, nil
}
func (s *webhookStore) MarkReminderSent(uuid.UUID, *time.Time) error   { return nil }
func (s *webhookStore) MarkReminderFailed(uuid.UUID, string) error     { return nil }
func (s *webhookStore) SnoozeReminder(uuid.UUID, time.Time) (bool, error) {
	return false, nil
}
func (s *webhookStore) Delete(uuid.UUID) error { return nil }
func (s *webhookStore) ListByQuote(uuid.UUID, services.TaskFilter, time.Time) ([]models.Task, error) {
	return nil, nil
}
func (s *webhookStore) QuoteExists(uuid.UUID) (bool, error) { return false, nil }

func (s *webhookStore) Append(entry *models.ReminderLog) error {
	s.logs = append(s.logs, *entry)
	return nil
}
func (s *webhookStore) FindByTask(uuid.UUID, int) ([]models.ReminderLog, error) {
	return nil, nil
}
func (s *webhookStore) InTransaction(fn func(services.TaskStore, services.ReminderLogStore) error) error {
	return fn(s, s)
}

func postReply(t *testing.T, router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWhatsAppWebhook(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("WEBHOOK_VALIDATE", "false")

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	phone := "+4915200000001"

	newFixture := func() (*gin.Engine, *webhookStore, *models.Task, *models.Task) {
		store := newWebhookStore()

		older := &models.Task{ID: uuid.New(), Title: "Order materials", Status: models.TaskStatusPending,
			AssignedPhone: phone, ReminderEnabled: true, ReminderChannel: models.ChannelWhatsApp}
		older.UpdatedAt = now.Add(-2 * time.Hour)
		newer := &models.Task{ID: uuid.New(), Title: "Confirm install date", Status: models.TaskStatusPending,
			AssignedPhone: phone, ReminderEnabled: true, ReminderChannel: models.ChannelWhatsApp}
		newer.UpdatedAt = now.Add(-time.Hour)
		store.tasks[older.ID] = older
		store.tasks[newer.ID] = newer

		wc := &WebhookController{
			Replies: services.NewReplyService(store, store, webhookClock{now: now}),
			Store:   store,
		}
		router := gin.New()
		router.POST("/webhooks/whatsapp", wc.WhatsAppWebhook)
		return router, store, older, newer
	}

	t.Run("phone fallback resolves the most recently updated task", func(t *testing.T) {
		router, store, older, newer := newFixture()

		form := url.Values{"From": {"whatsapp:" + phone}, "Body": {"All done!"}, "MessageSid": {"SM100"}}
		w := postReply(t, router, "/webhooks/whatsapp", form)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if got := store.statusUpdates[newer.ID]; got != models.TaskStatusCompleted {
			t.Errorf("expected newer task completed, got %q", got)
		}
		if _, touched := store.statusUpdates[older.ID]; touched {
			t.Error("older task must not be touched by the phone fallback")
		}
		if len(store.logs) != 1 || store.logs[0].TaskID != newer.ID || store.logs[0].Direction != models.DirectionInbound {
			t.Errorf("expected one inbound log on the newer task, got %+v", store.logs)
		}
		if store.logs[0].ReplyFrom != phone {
			t.Errorf("expected reply_from %q, got %q", phone, store.logs[0].ReplyFrom)
		}
	})

	t.Run("explicit task_id wins over the phone fallback", func(t *testing.T) {
		router, store, older, newer := newFixture()

		form := url.Values{"From": {"whatsapp:" + phone}, "Body": {"done"}}
		w := postReply(t, router, "/webhooks/whatsapp?task_id="+older.ID.String(), form)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if got := store.statusUpdates[older.ID]; got != models.TaskStatusCompleted {
			t.Errorf("expected the addressed task completed, got %q", got)
		}
		if _, touched := store.statusUpdates[newer.ID]; touched {
			t.Error("phone fallback must not run when task_id is given")
		}
	})

	t.Run("unknown sender without task_id is a 404", func(t *testing.T) {
		router, store, _, _ := newFixture()

		form := url.Values{"From": {"whatsapp:+10000000000"}, "Body": {"done"}}
		w := postReply(t, router, "/webhooks/whatsapp", form)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
		if len(store.logs) != 0 {
			t.Error("no log row may be written for an unresolvable reply")
		}
	})

	t.Run("malformed task_id is a 400", func(t *testing.T) {
		router, _, _, _ := newFixture()

		form := url.Values{"From": {"whatsapp:" + phone}, "Body": {"done"}}
		w := postReply(t, router, "/webhooks/whatsapp?task_id=not-a-uuid", form)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

// controllers/reminder.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quotebuilder-backend/models"
	"quotebuilder-backend/services"
	"quotebuilder-backend/utils"
)

type ReminderController struct {
	Dispatcher *services.Dispatcher
	Jobs       *services.JobQueue
	Store      services.TaskStore
	Logs       services.ReminderLogStore
	Clock      services.Clock
}

// SnoozeReminderInput defines the expected JSON structure
type SnoozeReminderInput struct {
	Minutes int `json:"minutes" binding:"required,min=1"`
}

// TriggerReminder runs one task's delivery sequence synchronously. This is
// also the manual-retry path for failed reminders.
func (rc *ReminderController) TriggerReminder(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	if err := rc.Dispatcher.TriggerOne(c.Request.Context(), taskID); err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder sent"})
}

// SnoozeReminder parks a pending reminder for the given number of minutes
func (rc *ReminderController) SnoozeReminder(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	var input SnoozeReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if _, err := rc.Store.FindByID(taskID); err != nil {
		respondWithServiceError(c, err)
		return
	}

	until := rc.Clock.Now().Add(time.Duration(input.Minutes) * time.Minute)
	snoozed, err := rc.Store.SnoozeReminder(taskID, until)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to snooze reminder")
		return
	}
	if !snoozed {
		utils.RespondWithError(c, http.StatusBadRequest, "Only an enabled pending reminder can be snoozed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder snoozed", "until": until})
}

// GetReminderLogs lists a task's reminder log, newest first. Logs survive
// task deletion, so no task lookup is required here.
func (rc *ReminderController) GetReminderLogs(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	logs, err := rc.Logs.FindByTask(taskID, limit)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminder logs")
		return
	}

	c.JSON(http.StatusOK, logs)
}

// GetTaskProgress returns the per-quote progress summary
func (rc *ReminderController) GetTaskProgress(c *gin.Context) {
	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	exists, err := rc.Store.QuoteExists(quoteID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		utils.RespondWithError(c, http.StatusNotFound, "Quote not found")
		return
	}

	tasks, err := rc.Store.ListByQuote(quoteID, services.TaskFilter{}, rc.Clock.Now())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}

	c.JSON(http.StatusOK, services.ComputeProgress(tasks, rc.Clock.Now()))
}

// DispatchReminders submits a batch-dispatch job and returns immediately.
// Completion is only observable through the reminder log.
func (rc *ReminderController) DispatchReminders(c *gin.Context) {
	channel := c.DefaultQuery("channel", models.ChannelWhatsApp)
	switch channel {
	case models.ChannelWhatsApp, models.ChannelEmail, models.ChannelNone:
	default:
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown channel: "+channel)
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	job := services.DispatchJob{ID: uuid.New(), Channel: channel, Limit: limit}
	if !rc.Jobs.Submit(job) {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Dispatch queue is full")
		return
	}

	c.JSON(http.StatusAccepted, job)
}

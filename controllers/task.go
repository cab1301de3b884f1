// controllers/task.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quotebuilder-backend/models"
	"quotebuilder-backend/services"
	"quotebuilder-backend/utils"
)

type TaskController struct {
	Store services.TaskStore
	Clock services.Clock
}

// CreateTaskInput defines the expected JSON structure for creating a task
type CreateTaskInput struct {
	QuoteID       string     `json:"quoteId" binding:"required,uuid"`
	CompanyID     string     `json:"companyId" binding:"required,uuid"`
	Title         string     `json:"title" binding:"required"`
	Description   string     `json:"description"`
	Status        string     `json:"status" binding:"omitempty,oneof=pending in_progress completed blocked"`
	Priority      string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueAt         *time.Time `json:"dueAt"`
	AssignedTo    string     `json:"assignedTo"`
	AssignedPhone string     `json:"assignedPhone"`

	ReminderEnabled   bool   `json:"reminderEnabled"`
	ReminderChannel   string `json:"reminderChannel" binding:"omitempty,oneof=whatsapp email none"`
	ReminderFrequency string `json:"reminderFrequency" binding:"omitempty,oneof=once daily weekly before_due"`

	CreatedBy string `json:"createdBy"`
}

// UpdateTaskInput defines the expected JSON structure for updating a task
type UpdateTaskInput struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status" binding:"omitempty,oneof=pending in_progress completed blocked"`
	Priority      *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueAt         *time.Time `json:"dueAt"`
	AssignedTo    *string    `json:"assignedTo"`
	AssignedPhone *string    `json:"assignedPhone"`

	ReminderEnabled   *bool   `json:"reminderEnabled"`
	ReminderChannel   *string `json:"reminderChannel" binding:"omitempty,oneof=whatsapp email none"`
	ReminderFrequency *string `json:"reminderFrequency" binding:"omitempty,oneof=once daily weekly before_due"`
}

// CreateTask creates a new task on a quote
func (tc *TaskController) CreateTask(c *gin.Context) {
	var input CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.AssignedPhone != "" && !utils.ValidatePhone(input.AssignedPhone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	task := models.Task{
		ID:                uuid.New(),
		QuoteID:           uuid.MustParse(input.QuoteID),
		CompanyID:         uuid.MustParse(input.CompanyID),
		Title:             input.Title,
		Description:       input.Description,
		Status:            models.TaskStatusPending,
		Priority:          models.TaskPriorityMedium,
		DueAt:             input.DueAt,
		AssignedTo:        input.AssignedTo,
		AssignedPhone:     input.AssignedPhone,
		ReminderEnabled:   input.ReminderEnabled,
		ReminderChannel:   models.ChannelWhatsApp,
		ReminderFrequency: input.ReminderFrequency,
		CreatedBy:         input.CreatedBy,
	}
	if input.Status != "" {
		task.Status = input.Status
	}
	if input.Priority != "" {
		task.Priority = input.Priority
	}
	if input.ReminderChannel != "" {
		task.ReminderChannel = input.ReminderChannel
	}

	services.ApplyReminderFields(&task, tc.Clock.Now())

	if err := tc.Store.Create(&task); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create task")
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTasks lists a quote's tasks with optional status/priority/search/overdue
// filters
func (tc *TaskController) GetTasks(c *gin.Context) {
	quoteID, err := uuid.Parse(c.Query("quote_id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid or missing quote_id")
		return
	}

	filter := services.TaskFilter{
		Status:      c.Query("status"),
		Priority:    c.Query("priority"),
		Search:      c.Query("search"),
		OverdueOnly: c.Query("overdue") == "true",
	}

	tasks, err := tc.Store.ListByQuote(quoteID, filter, tc.Clock.Now())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// GetTask retrieves a task by ID
func (tc *TaskController) GetTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	task, err := tc.Store.FindByID(taskID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTask applies a partial update. Any change to a reminder-relevant
// field recomputes the reminder fields through the scheduler.
func (tc *TaskController) UpdateTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	var input UpdateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	task, err := tc.Store.FindByID(taskID)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	if input.Title != nil {
		if *input.Title == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Title cannot be empty")
			return
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.AssignedTo != nil {
		task.AssignedTo = *input.AssignedTo
	}
	if input.AssignedPhone != nil {
		if *input.AssignedPhone != "" && !utils.ValidatePhone(*input.AssignedPhone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		task.AssignedPhone = *input.AssignedPhone
	}

	reminderTouched := false
	if input.DueAt != nil {
		task.DueAt = input.DueAt
		reminderTouched = true
	}
	if input.ReminderEnabled != nil {
		task.ReminderEnabled = *input.ReminderEnabled
		reminderTouched = true
	}
	if input.ReminderChannel != nil {
		task.ReminderChannel = *input.ReminderChannel
		reminderTouched = true
	}
	if input.ReminderFrequency != nil {
		task.ReminderFrequency = *input.ReminderFrequency
		reminderTouched = true
	}

	if reminderTouched {
		services.ApplyReminderFields(task, tc.Clock.Now())
	}

	if err := tc.Store.Save(task); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask hard-deletes a task. Its reminder logs are kept.
func (tc *TaskController) DeleteTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	if err := tc.Store.Delete(taskID); err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

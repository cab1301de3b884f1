package routes

import (
	"quotebuilder-backend/config"
	"quotebuilder-backend/controllers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps carries the wired controllers into the router.
type Deps struct {
	Tasks     *controllers.TaskController
	Reminders *controllers.ReminderController
	Webhooks  *controllers.WebhookController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	api := r.Group("/api")
	{
		// Task routes
		tasks := api.Group("/tasks")
		{
			tasks.POST("", d.Tasks.CreateTask)
			tasks.GET("", d.Tasks.GetTasks)
			tasks.GET("/:id", d.Tasks.GetTask)
			tasks.PUT("/:id", d.Tasks.UpdateTask)
			tasks.DELETE("/:id", d.Tasks.DeleteTask)

			tasks.POST("/:id/remind", d.Reminders.TriggerReminder)
			tasks.POST("/:id/snooze", d.Reminders.SnoozeReminder)
			tasks.GET("/:id/reminder-logs", d.Reminders.GetReminderLogs)
		}

		// Quote progress
		api.GET("/quotes/:id/task-progress", d.Reminders.GetTaskProgress)

		// Batch reminder job
		api.POST("/reminders/dispatch", d.Reminders.DispatchReminders)
	}

	// Provider callbacks
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/whatsapp", d.Webhooks.WhatsAppWebhook)
	}

	return r
}

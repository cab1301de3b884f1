// services/progress.go
package services

import (
	"math"
	"time"

	"quotebuilder-backend/models"
)

type ProgressSummary struct {
	Total           int `json:"total"`
	Completed       int `json:"completed"`
	InProgress      int `json:"in_progress"`
	Pending         int `json:"pending"`
	Overdue         int `json:"overdue"`
	PercentComplete int `json:"percent_complete"`
}

// ComputeProgress aggregates a quote's tasks into a progress summary.
// Overdue counts tasks past their due date that are not completed, whatever
// their status.
func ComputeProgress(tasks []models.Task, now time.Time) ProgressSummary {
	summary := ProgressSummary{Total: len(tasks)}

	for i := range tasks {
		task := tasks[i]
		switch task.Status {
		case models.TaskStatusCompleted:
			summary.Completed++
		case models.TaskStatusInProgress:
			summary.InProgress++
		case models.TaskStatusPending:
			summary.Pending++
		}
		if task.Overdue(now) {
			summary.Overdue++
		}
	}

	if summary.Total > 0 {
		summary.PercentComplete = int(math.Round(float64(summary.Completed) / float64(summary.Total) * 100))
	}
	return summary
}

// controllers/webhook.go
package controllers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	twilioClient "github.com/twilio/twilio-go/client"

	"quotebuilder-backend/services"
	"quotebuilder-backend/utils"
)

type WebhookController struct {
	Replies *services.ReplyService
	Store   services.TaskStore
}

// WhatsAppWebhook receives Twilio's inbound-message callback, verifies its
// signature, resolves the task and records the reply.
func (wc *WebhookController) WhatsAppWebhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid form payload")
		return
	}

	if !wc.validSignature(c) {
		utils.RespondWithError(c, http.StatusForbidden, "Invalid webhook signature")
		return
	}

	from := strings.TrimPrefix(c.Request.PostFormValue("From"), "whatsapp:")
	body := c.Request.PostFormValue("Body")

	task, err := wc.resolveTask(c, from)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	payload := make(map[string]interface{}, len(c.Request.PostForm))
	for key := range c.Request.PostForm {
		payload[key] = c.Request.PostFormValue(key)
	}

	if err := wc.Replies.RecordReply(task, body, from, payload); err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// resolveTask prefers an explicit task_id parameter and falls back to the
// sender's assigned phone.
func (wc *WebhookController) resolveTask(c *gin.Context, from string) (uuid.UUID, error) {
	raw := c.Query("task_id")
	if raw == "" {
		raw = c.Request.PostFormValue("task_id")
	}
	if raw != "" {
		taskID, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, services.NewValidationError("invalid task_id: %s", raw)
		}
		return taskID, nil
	}

	if from == "" {
		return uuid.Nil, services.NewValidationError("reply has no sender and no task_id")
	}
	task, err := wc.Store.FindByAssignedPhone(from)
	if err != nil {
		return uuid.Nil, err
	}
	return task.ID, nil
}

func (wc *WebhookController) validSignature(c *gin.Context) bool {
	// Local development can disable validation explicitly.
	if os.Getenv("WEBHOOK_VALIDATE") == "false" {
		return true
	}

	params := make(map[string]string, len(c.Request.PostForm))
	for key := range c.Request.PostForm {
		params[key] = c.Request.PostFormValue(key)
	}

	url := "https://" + c.Request.Host + c.Request.RequestURI
	validator := twilioClient.NewRequestValidator(os.Getenv("TWILIO_AUTH_TOKEN"))
	return validator.Validate(url, params, c.GetHeader("X-Twilio-Signature"))
}

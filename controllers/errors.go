// controllers/errors.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quotebuilder-backend/services"
	"quotebuilder-backend/utils"
)

// respondWithServiceError maps the core's typed errors to HTTP statuses.
func respondWithServiceError(c *gin.Context, err error) {
	var validation *services.ValidationError
	var notFound *services.NotFoundError
	var delivery *services.DeliveryError

	switch {
	case errors.As(err, &validation):
		utils.RespondWithError(c, http.StatusBadRequest, validation.Msg)
	case errors.As(err, &notFound):
		utils.RespondWithError(c, http.StatusNotFound, notFound.Error())
	case errors.As(err, &delivery):
		utils.RespondWithError(c, http.StatusBadGateway, delivery.Error())
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
	}
}

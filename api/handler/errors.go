package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
)

// respondError writes err as a JSON error body with a matching status.
func respondError(c *gin.Context, err error) {
	se := models.AsScrapeError(err)
	c.JSON(mapErrorToStatus(se), models.ErrorResponse{Error: se.ToDetail()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: &models.ErrorDetail{
		Code:    models.ErrCodeInvalidInput,
		Message: msg,
	}})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeAuthWall, models.ErrCodeUpload:
		return http.StatusBadGateway // 502
	case models.ErrCodeEmptyDocument:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRunInProgress:
		return http.StatusConflict // 409
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}

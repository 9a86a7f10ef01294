package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bancario/account-service/internal/account_api/middleware"
	"github.com/bancario/account-service/internal/domain/shared"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, &Response{
		Data:          data,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, &Response{
		Error:         &ErrorInfo{Code: code, Message: message},
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// RespondError maps the service error taxonomy onto HTTP statuses. Unclassified
// errors are logged and reported as 500 without leaking their text.
func RespondError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		validation  shared.ValidationError
		notFound    shared.NotFoundError
		rule        shared.BusinessRuleError
		unavailable shared.ServiceUnavailableError
	)
	switch {
	case errors.As(err, &validation):
		RespondBadRequest(c, validation.Reason)
	case errors.As(err, &rule):
		RespondWithError(c, http.StatusBadRequest, "BUSINESS_RULE_VIOLATION", rule.Reason)
	case errors.As(err, &notFound):
		RespondWithError(c, http.StatusNotFound, "NOT_FOUND", notFound.Error())
	case errors.As(err, &unavailable):
		logger.Warn("Dependency unavailable",
			"path", c.FullPath(),
			"operation", unavailable.Operation,
			"error", err)
		RespondWithError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
			unavailable.Operation+" is temporarily unavailable, retry later")
	default:
		logger.Error("Request failed",
			"path", c.FullPath(),
			"error", err)
		RespondInternalError(c)
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/vantagecare/questionnaire-service/internal/errors"
	"github.com/vantagecare/questionnaire-service/internal/services"
	"github.com/vantagecare/questionnaire-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER =====

// BaseHandler provides shared response and logging helpers.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	resp := ErrorResponse{Message: message}
	if len(details) > 0 {
		resp.Details = details[0]
	}

	if err != nil {
		h.logger.LogError(err, message,
			"status_code", statusCode,
			"method", c.Request.Method,
			"path", c.Request.URL.Path)
	} else {
		h.logger.Warn(message,
			"status_code", statusCode,
			"method", c.Request.Method,
			"path", c.Request.URL.Path)
	}

	c.JSON(statusCode, resp)
}

func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{Message: message, Data: data})
}

// RespondWithServiceError maps service-layer errors onto HTTP statuses:
// not-found conditions become 404, validation failures 422, everything
// else 500.
func (h *BaseHandler) RespondWithServiceError(c *gin.Context, err error) {
	switch {
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, err.Error(), err)
	case services.IsValidation(err):
		h.respondValidation(c, err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "internal server error", err)
	}
}

func (h *BaseHandler) respondValidation(c *gin.Context, err error) {
	var cve *services.ConfigValidationError
	if errors.As(err, &cve) {
		h.RespondWithError(c, http.StatusUnprocessableEntity, "invalid scoring configuration", err, cve.Problems)
		return
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		h.RespondWithError(c, http.StatusUnprocessableEntity, "validation failed", err, ve)
		return
	}
	h.RespondWithError(c, http.StatusUnprocessableEntity, err.Error(), err)
}

// ParseUintParam extracts a positive integer path parameter.
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

// HealthCheck responds to liveness probes.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

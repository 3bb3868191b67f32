package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ppsgen/backend/internal/pkg/spreadsheet"
	"github.com/ppsgen/backend/internal/repository"
	"github.com/ppsgen/backend/internal/service"
	"github.com/ppsgen/backend/internal/service/export"
	"github.com/ppsgen/backend/internal/service/hierarchy"
	"github.com/ppsgen/backend/internal/service/orchestrator"
)

const (
	HeaderOwnerID   = "X-Owner-ID"
	HeaderLLMAPIKey = "X-LLM-API-Key"
	DefaultOwnerID  = "anonymous"
)

func ownerID(c *gin.Context) string {
	if owner := c.GetHeader(HeaderOwnerID); owner != "" {
		return owner
	}
	return DefaultOwnerID
}

func apiKey(c *gin.Context) string {
	return c.GetHeader(HeaderLLMAPIKey)
}

// statusFor 把领域错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrDatasetNotLoaded),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnknownField),
		errors.Is(err, hierarchy.ErrTreeEmpty),
		errors.Is(err, spreadsheet.ErrEmptySheet),
		errors.Is(err, spreadsheet.ErrUnsupportedFormat),
		errors.Is(err, export.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrBatchInProgress):
		return http.StatusConflict
	case errors.Is(err, orchestrator.ErrQueueFull),
		errors.Is(err, orchestrator.ErrOrchestratorStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

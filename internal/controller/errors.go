package controller

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"dataframe-gateway/internal/middleware"
	"dataframe-gateway/internal/repository"
	"dataframe-gateway/internal/service"
	"dataframe-gateway/internal/utils"
	"dataframe-gateway/pkg/response"
)

// toAppError classifies service, repository and ingestion errors
func toAppError(err error) *utils.AppError {
	var code string
	switch {
	case errors.Is(err, repository.ErrSourceNotFound):
		code = utils.ErrCodeSourceNotFound
	case errors.Is(err, repository.ErrSourceExists):
		code = utils.ErrCodeSourceExists
	case errors.Is(err, repository.ErrInvalidUUID):
		code = utils.ErrCodeInvalidUUID
	case errors.Is(err, service.ErrSourceArchived):
		code = utils.ErrCodeSourceArchived
	case errors.Is(err, service.ErrUnsupportedSource):
		code = utils.ErrCodeUnsupportedType
	case errors.Is(err, service.ErrSourceStatsNotFound):
		return utils.NewNotFoundError("Load statistics")
	case errors.Is(err, repository.ErrDatabase):
		return utils.NewDatabaseError(err, "source store unavailable")
	default:
		return utils.FromProviderError(err)
	}
	return utils.NewErrorBuilder(code).WithCause(err).Build()
}

// sendError writes err as a standard error response
func sendError(c *gin.Context, err error) {
	appErr := toAppError(err)
	status := utils.GetErrorStatus(appErr)
	if status >= 500 {
		slog.Error("request failed", "path", c.FullPath(), "code", appErr.Code,
			"correlation_id", middleware.GetCorrelationID(c), "error", err)
	}
	c.JSON(status, response.ErrorResponseFromAppError(appErr, middleware.GetCorrelationID(c)))
}

func sendValidationError(c *gin.Context, message string, err error) {
	appErr := utils.NewValidationError(message, err.Error())
	c.JSON(utils.GetErrorStatus(appErr), response.ErrorResponseFromAppError(appErr, middleware.GetCorrelationID(c)))
}

package controller

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"dataframe-gateway/internal/export"
	"dataframe-gateway/internal/middleware"
	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/service"
	"dataframe-gateway/internal/utils"
	"dataframe-gateway/pkg/response"
)

const (
	FormatJSON  = "json"
	FormatArrow = "arrow"
)

type LoadController struct {
	service   service.LoadService
	validator *validator.Validate
}

type TestSourceRequest struct {
	Config model.SourceConfig `json:"config" validate:"required"`
}

func NewLoadController(service service.LoadService) *LoadController {
	return &LoadController{
		service:   service,
		validator: validator.New(),
	}
}

// TestSource godoc
// @Summary Load an unsaved source configuration
// @Tags loads
// @Accept json
// @Produce json
// @Param request body TestSourceRequest true "Source configuration"
// @Param format query string false "json (default) or arrow"
// @Success 200 {object} response.StandardResponse{data=model.LoadResponse}
// @Failure 400 {object} response.StandardResponse
// @Failure 502 {object} response.StandardResponse
// @Router /api/v1/sources/test [post]
func (lc *LoadController) TestSource(c *gin.Context) {
	var req TestSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendValidationError(c, "Invalid request body", err)
		return
	}
	if err := lc.validator.Struct(&req); err != nil {
		sendValidationError(c, "Validation failed", err)
		return
	}

	format, ok := lc.format(c)
	if !ok {
		return
	}

	result, err := lc.service.TestConfig(c.Request.Context(), req.Config)
	if err != nil {
		sendError(c, err)
		return
	}
	lc.write(c, format, result)
}

// LoadSource godoc
// @Summary Load a stored source
// @Tags loads
// @Produce json
// @Param id path string true "Source UUID"
// @Param format query string false "json (default) or arrow"
// @Param table query string false "Dataframe to stream when format=arrow"
// @Success 200 {object} response.StandardResponse{data=model.LoadResponse}
// @Failure 404 {object} response.StandardResponse
// @Failure 504 {object} response.StandardResponse
// @Router /api/v1/sources/{id}/load [post]
func (lc *LoadController) LoadSource(c *gin.Context) {
	format, ok := lc.format(c)
	if !ok {
		return
	}

	result, err := lc.service.LoadSource(c.Request.Context(), orgID(c), c.Param("id"))
	if err != nil {
		sendError(c, err)
		return
	}
	lc.write(c, format, result)
}

// SourceStats godoc
// @Summary Load statistics of a source
// @Tags loads
// @Produce json
// @Param id path string true "Source UUID"
// @Success 200 {object} response.StandardResponse{data=service.SourceLoadStats}
// @Router /api/v1/sources/{id}/stats [get]
func (lc *LoadController) SourceStats(c *gin.Context) {
	stats, err := lc.service.SourceStats(c.Request.Context(), orgID(c), c.Param("id"))
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse(stats, middleware.GetCorrelationID(c)))
}

// Summary godoc
// @Summary Gateway-wide load statistics
// @Tags loads
// @Produce json
// @Success 200 {object} response.StandardResponse{data=service.LoadStatsSummary}
// @Router /api/v1/loads/stats [get]
func (lc *LoadController) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, response.SuccessResponse(lc.service.Summary(), middleware.GetCorrelationID(c)))
}

func (lc *LoadController) format(c *gin.Context) (string, bool) {
	format := c.DefaultQuery("format", FormatJSON)
	switch format {
	case FormatJSON, FormatArrow:
		return format, true
	default:
		appErr := utils.NewErrorBuilder(utils.ErrCodeInvalidParameters).
			WithDetails("format must be json or arrow").
			Build()
		c.JSON(utils.GetErrorStatus(appErr), response.ErrorResponseFromAppError(appErr, middleware.GetCorrelationID(c)))
		return "", false
	}
}

func (lc *LoadController) write(c *gin.Context, format string, result *model.LoadResponse) {
	if format == FormatJSON {
		c.JSON(http.StatusOK, response.SuccessResponse(result, middleware.GetCorrelationID(c)))
		return
	}

	df := selectFrame(result.Dataframes, c.Query("table"))
	if df == nil {
		sendError(c, utils.NewNotFoundError("Dataframe"))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteIPC(&buf, df, nil); err != nil {
		sendError(c, utils.NewErrorBuilder(utils.ErrCodeExportFailed).WithDetails(err.Error()).WithCause(err).Build())
		return
	}

	c.Header("X-Dataframe-Name", df.Name)
	c.Header("X-Dataframe-Count", strconv.Itoa(len(result.Dataframes)))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// selectFrame picks the named dataframe, or the first one when name is empty
func selectFrame(frames []*model.Dataframe, name string) *model.Dataframe {
	for _, df := range frames {
		if name == "" || df.Name == name {
			return df
		}
	}
	return nil
}

package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"dataframe-gateway/internal/middleware"
	"dataframe-gateway/internal/security"
	"dataframe-gateway/internal/service"
	"dataframe-gateway/pkg/response"
)

type SourceController struct {
	service   service.SourceService
	validator *validator.Validate
}

type CheckNameResponse struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

func NewSourceController(service service.SourceService) *SourceController {
	return &SourceController{
		service:   service,
		validator: validator.New(),
	}
}

// orgID scopes a request: the token's organization when authenticated,
// otherwise the orgId query parameter or the default organization
func orgID(c *gin.Context) string {
	if security.IsAuthenticated(c) {
		return security.GetOrgID(c)
	}
	if org := c.Query("orgId"); org != "" {
		return org
	}
	return security.DefaultOrgID
}

// CreateSource godoc
// @Summary Create a new source
// @Tags sources
// @Accept json
// @Produce json
// @Param request body service.CreateSourceRequest true "Create source request"
// @Success 201 {object} response.StandardResponse{data=model.Source}
// @Failure 400 {object} response.StandardResponse
// @Failure 409 {object} response.StandardResponse
// @Router /api/v1/sources [post]
func (sc *SourceController) CreateSource(c *gin.Context) {
	var req service.CreateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendValidationError(c, "Invalid request body", err)
		return
	}
	if err := sc.validator.Struct(&req); err != nil {
		sendValidationError(c, "Validation failed", err)
		return
	}

	userID, _ := security.GetUserID(c)
	source, err := sc.service.CreateSource(c.Request.Context(), orgID(c), userID, &req)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.SuccessResponse(source, middleware.GetCorrelationID(c)))
}

// GetSource godoc
// @Summary Get a source by ID
// @Tags sources
// @Produce json
// @Param id path string true "Source UUID"
// @Success 200 {object} response.StandardResponse{data=model.Source}
// @Failure 404 {object} response.StandardResponse
// @Router /api/v1/sources/{id} [get]
func (sc *SourceController) GetSource(c *gin.Context) {
	source, err := sc.service.GetSource(c.Request.Context(), orgID(c), c.Param("id"))
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(source, middleware.GetCorrelationID(c)))
}

// ListSources godoc
// @Summary List the sources of an organization
// @Tags sources
// @Produce json
// @Param archived query bool false "List archived sources instead of active ones"
// @Success 200 {object} response.StandardResponse{data=[]model.Source}
// @Router /api/v1/sources [get]
func (sc *SourceController) ListSources(c *gin.Context) {
	archived := false
	if raw := c.Query("archived"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			sendValidationError(c, "Invalid archived parameter", err)
			return
		}
		archived = parsed
	}

	sources, err := sc.service.ListSources(c.Request.Context(), orgID(c), archived)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.ListResponse(sources, len(sources), middleware.GetCorrelationID(c)))
}

// UpdateSource godoc
// @Summary Update a source
// @Tags sources
// @Accept json
// @Produce json
// @Param id path string true "Source UUID"
// @Param request body service.UpdateSourceRequest true "Update source request"
// @Success 200 {object} response.StandardResponse{data=model.Source}
// @Router /api/v1/sources/{id} [put]
func (sc *SourceController) UpdateSource(c *gin.Context) {
	var req service.UpdateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendValidationError(c, "Invalid request body", err)
		return
	}
	if err := sc.validator.Struct(&req); err != nil {
		sendValidationError(c, "Validation failed", err)
		return
	}

	source, err := sc.service.UpdateSource(c.Request.Context(), orgID(c), c.Param("id"), &req)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(source, middleware.GetCorrelationID(c)))
}

// DeleteSource godoc
// @Summary Delete or archive a source
// @Tags sources
// @Param id path string true "Source UUID"
// @Param archive query bool false "Archive instead of deleting"
// @Success 200 {object} response.StandardResponse
// @Router /api/v1/sources/{id} [delete]
func (sc *SourceController) DeleteSource(c *gin.Context) {
	archive, _ := strconv.ParseBool(c.DefaultQuery("archive", "false"))

	if err := sc.service.DeleteSource(c.Request.Context(), orgID(c), c.Param("id"), archive); err != nil {
		sendError(c, err)
		return
	}

	message := "Source deleted successfully"
	if archive {
		message = "Source archived successfully"
	}
	c.JSON(http.StatusOK, response.SuccessMessageResponse(message, middleware.GetCorrelationID(c)))
}

// UnarchiveSource godoc
// @Summary Restore an archived source
// @Tags sources
// @Param id path string true "Source UUID"
// @Success 200 {object} response.StandardResponse
// @Router /api/v1/sources/unarchive/{id} [put]
func (sc *SourceController) UnarchiveSource(c *gin.Context) {
	if err := sc.service.UnarchiveSource(c.Request.Context(), orgID(c), c.Param("id")); err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessageResponse("Source unarchived successfully", middleware.GetCorrelationID(c)))
}

// CheckName godoc
// @Summary Check whether a source name is available
// @Tags sources
// @Accept json
// @Produce json
// @Param request body service.CheckNameRequest true "Name to check"
// @Success 200 {object} response.StandardResponse{data=CheckNameResponse}
// @Router /api/v1/sources/check/name [post]
func (sc *SourceController) CheckName(c *gin.Context) {
	var req service.CheckNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendValidationError(c, "Invalid request body", err)
		return
	}
	if err := sc.validator.Struct(&req); err != nil {
		sendValidationError(c, "Validation failed", err)
		return
	}

	available, err := sc.service.CheckName(c.Request.Context(), orgID(c), &req)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(CheckNameResponse{
		Name:      req.Name,
		Available: available,
	}, middleware.GetCorrelationID(c)))
}

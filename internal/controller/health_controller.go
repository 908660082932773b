package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"dataframe-gateway/internal/middleware"
	"dataframe-gateway/pkg/response"
)

// Version is reported by the health endpoint
var Version = "1.0.0"

type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Version     string            `json:"version"`
	Database    DatabaseStatus    `json:"database"`
	Connections map[string]string `json:"connections"`
	Parsers     []string          `json:"parsers"`

	RateLimit *middleware.RateLimitStats `json:"rateLimit,omitempty"`
}

type DatabaseStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ParserLister reports the registered response parsers
type ParserLister interface {
	List() []string
}

// RateLimitReporter reports the state of the request rate limiter
type RateLimitReporter interface {
	GetStats() middleware.RateLimitStats
}

type HealthController struct {
	db        *gorm.DB
	parsers   ParserLister
	rateLimit RateLimitReporter
}

func NewHealthController(db *gorm.DB, parsers ParserLister) *HealthController {
	return &HealthController{
		db:      db,
		parsers: parsers,
	}
}

// WithRateLimit adds the rate limiter state to health reports
func (hc *HealthController) WithRateLimit(reporter RateLimitReporter) *HealthController {
	hc.rateLimit = reporter
	return hc
}

func (hc *HealthController) HealthCheck(c *gin.Context) {
	health := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now(),
		Service:     "dataframe-gateway",
		Version:     Version,
		Connections: make(map[string]string),
		Parsers:     hc.parsers.List(),
	}
	if hc.rateLimit != nil {
		stats := hc.rateLimit.GetStats()
		health.RateLimit = &stats
	}

	// Check database connection
	sqlDB, err := hc.db.DB()
	if err != nil {
		health.Status = "unhealthy"
		health.Database = DatabaseStatus{
			Status:  "disconnected",
			Message: "Failed to get database instance",
		}
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		health.Status = "unhealthy"
		health.Database = DatabaseStatus{
			Status:  "disconnected",
			Message: "Database ping failed: " + err.Error(),
		}
	} else {
		stats := sqlDB.Stats()
		health.Database = DatabaseStatus{
			Status:  "connected",
			Message: "Database connection healthy",
		}
		health.Connections["database_open_connections"] = fmt.Sprintf("%d", stats.OpenConnections)
		health.Connections["database_in_use"] = fmt.Sprintf("%d", stats.InUse)
		health.Connections["database_idle"] = fmt.Sprintf("%d", stats.Idle)
	}

	// Set HTTP status based on health
	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// ListParsers godoc
// @Summary List response parser identifiers
// @Tags parsers
// @Produce json
// @Success 200 {object} response.StandardResponse{data=[]string}
// @Router /api/v1/parsers [get]
func (hc *HealthController) ListParsers(c *gin.Context) {
	names := hc.parsers.List()
	c.JSON(http.StatusOK, response.ListResponse(names, len(names), middleware.GetCorrelationID(c)))
}

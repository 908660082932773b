package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dataframe-gateway/internal/logging"
	"dataframe-gateway/internal/middleware"
	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/utils"
)

// DataLoader turns a source configuration into dataframes
type DataLoader interface {
	ConfigValidator
	LoadData(ctx context.Context, config map[string]interface{}) ([]*model.Dataframe, error)
}

type LoadService interface {
	// TestConfig loads an unsaved configuration
	TestConfig(ctx context.Context, config model.SourceConfig) (*model.LoadResponse, error)
	// LoadSource loads a stored, active source
	LoadSource(ctx context.Context, orgID, id string) (*model.LoadResponse, error)
	SourceStats(ctx context.Context, orgID, id string) (*SourceLoadStats, error)
	Summary() *LoadStatsSummary
}

type loadService struct {
	sources SourceService
	loader  DataLoader
	stats   *LoadStatsCollector
	logger  *slog.Logger
}

// NewLoadService creates a new instance of LoadService
func NewLoadService(sources SourceService, loader DataLoader, stats *LoadStatsCollector) LoadService {
	if stats == nil {
		stats = NewLoadStatsCollector(0)
	}
	return &loadService{
		sources: sources,
		loader:  loader,
		stats:   stats,
		logger:  logging.New("load-service"),
	}
}

func (ls *loadService) TestConfig(ctx context.Context, config model.SourceConfig) (*model.LoadResponse, error) {
	return ls.load(ctx, "", config)
}

func (ls *loadService) LoadSource(ctx context.Context, orgID, id string) (*model.LoadResponse, error) {
	source, err := ls.sources.ResolveSource(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if source.IsArchived() {
		return nil, ErrSourceArchived
	}
	if source.Type != ls.loader.Type() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source.Type)
	}

	return ls.load(ctx, source.ID, source.Config)
}

func (ls *loadService) load(ctx context.Context, sourceID string, config model.SourceConfig) (*model.LoadResponse, error) {
	start := time.Now()
	frames, err := ls.loader.LoadData(ctx, config)
	elapsed := time.Since(start)

	record := LoadRecord{SourceID: sourceID, Duration: elapsed, Timestamp: start}
	if err != nil {
		appErr := utils.FromProviderError(err)
		record.ErrorCode = appErr.Code
		record.Error = err.Error()
		ls.stats.Record(record)
		middleware.RecordLoadMetrics(ls.loader.Type(), "error", elapsed, 0)

		ls.logger.Warn("load failed",
			"source", sourceID, "code", appErr.Code, "elapsed", elapsed,
			"correlation_id", middleware.CorrelationIDFromContext(ctx), "error", err)
		return nil, err
	}

	resp := model.NewLoadResponse(sourceID, frames, elapsed)
	record.Success = true
	record.Rows = resp.Metadata.RowCount
	ls.stats.Record(record)
	middleware.RecordLoadMetrics(ls.loader.Type(), "success", elapsed, len(frames))

	ls.logger.Info("load completed",
		"source", sourceID, "dataframes", len(frames), "rows", resp.Metadata.RowCount,
		"elapsed", elapsed, "correlation_id", middleware.CorrelationIDFromContext(ctx))
	return resp, nil
}

func (ls *loadService) SourceStats(ctx context.Context, orgID, id string) (*SourceLoadStats, error) {
	if _, err := ls.sources.GetSource(ctx, orgID, id); err != nil {
		return nil, err
	}
	return ls.stats.SourceStats(id)
}

func (ls *loadService) Summary() *LoadStatsSummary {
	return ls.stats.Summary(10)
}

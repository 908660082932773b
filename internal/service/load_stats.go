package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrSourceStatsNotFound = errors.New("source load statistics not found")

// adHocSourceID keys loads of unsaved configurations
const adHocSourceID = "ad-hoc"

// LoadStatsCollector aggregates load outcomes in memory, per source and overall
type LoadStatsCollector struct {
	mu      sync.RWMutex
	sources map[string]*SourceLoadStats
	global  GlobalLoadStats

	retention       time.Duration
	cleanupInterval time.Duration
}

// SourceLoadStats holds load counters for one source
type SourceLoadStats struct {
	SourceID        string          `json:"sourceId"`
	TotalLoads      int64           `json:"totalLoads"`
	SuccessfulLoads int64           `json:"successfulLoads"`
	FailedLoads     int64           `json:"failedLoads"`
	TotalRows       int64           `json:"totalRows"`
	TotalTimeNs     int64           `json:"totalTimeNs"`
	MinTimeNs       int64           `json:"minTimeNs"`
	MaxTimeNs       int64           `json:"maxTimeNs"`
	LastLoadTime    time.Time       `json:"lastLoadTime"`
	LastError       string          `json:"lastError,omitempty"`
	LastErrorCode   string          `json:"lastErrorCode,omitempty"`
	LastErrorTime   time.Time       `json:"lastErrorTime,omitempty"`
	LoadsByHour     map[int64]int64 `json:"loadsByHour"`
}

// GlobalLoadStats holds gateway-wide load counters
type GlobalLoadStats struct {
	TotalLoads      int64     `json:"totalLoads"`
	SuccessfulLoads int64     `json:"successfulLoads"`
	FailedLoads     int64     `json:"failedLoads"`
	TotalRows       int64     `json:"totalRows"`
	TotalTimeNs     int64     `json:"totalTimeNs"`
	StartTime       time.Time `json:"startTime"`
}

// LoadRecord describes one finished load
type LoadRecord struct {
	SourceID  string
	Success   bool
	Duration  time.Duration
	Rows      int
	ErrorCode string
	Error     string
	Timestamp time.Time
}

// LoadStatsSummary is the aggregate view served by the API
type LoadStatsSummary struct {
	Global        GlobalLoadStats `json:"global"`
	UptimeSeconds float64         `json:"uptimeSeconds"`
	SuccessRate   float64         `json:"successRate"`
	AvgLoadTimeMs float64         `json:"avgLoadTimeMs"`
	ActiveSources int             `json:"activeSources"`
	TopSources    []string        `json:"topSources"`
}

// NewLoadStatsCollector creates a collector keeping hourly buckets for retention
func NewLoadStatsCollector(retention time.Duration) *LoadStatsCollector {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &LoadStatsCollector{
		sources:         make(map[string]*SourceLoadStats),
		global:          GlobalLoadStats{StartTime: time.Now()},
		retention:       retention,
		cleanupInterval: time.Hour,
	}
}

// Record adds one load outcome
func (c *LoadStatsCollector) Record(record LoadRecord) {
	if record.SourceID == "" {
		record.SourceID = adHocSourceID
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	ns := record.Duration.Nanoseconds()

	c.mu.Lock()
	defer c.mu.Unlock()

	stats, exists := c.sources[record.SourceID]
	if !exists {
		stats = &SourceLoadStats{
			SourceID:    record.SourceID,
			MinTimeNs:   ns,
			MaxTimeNs:   ns,
			LoadsByHour: make(map[int64]int64),
		}
		c.sources[record.SourceID] = stats
	}

	stats.TotalLoads++
	stats.TotalTimeNs += ns
	stats.LastLoadTime = record.Timestamp
	if ns < stats.MinTimeNs {
		stats.MinTimeNs = ns
	}
	if ns > stats.MaxTimeNs {
		stats.MaxTimeNs = ns
	}
	stats.LoadsByHour[record.Timestamp.Truncate(time.Hour).Unix()]++

	c.global.TotalLoads++
	c.global.TotalTimeNs += ns

	if record.Success {
		stats.SuccessfulLoads++
		stats.TotalRows += int64(record.Rows)
		c.global.SuccessfulLoads++
		c.global.TotalRows += int64(record.Rows)
		return
	}

	stats.FailedLoads++
	stats.LastError = record.Error
	stats.LastErrorCode = record.ErrorCode
	stats.LastErrorTime = record.Timestamp
	c.global.FailedLoads++
}

// SourceStats returns a copy of the statistics of one source
func (c *LoadStatsCollector) SourceStats(sourceID string) (*SourceLoadStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats, exists := c.sources[sourceID]
	if !exists {
		return nil, ErrSourceStatsNotFound
	}

	copied := *stats
	copied.LoadsByHour = make(map[int64]int64, len(stats.LoadsByHour))
	for hour, count := range stats.LoadsByHour {
		copied.LoadsByHour[hour] = count
	}
	return &copied, nil
}

// Forget drops the statistics of a deleted source
func (c *LoadStatsCollector) Forget(sourceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, sourceID)
}

// Summary returns gateway-wide statistics
func (c *LoadStatsCollector) Summary(topN int) *LoadStatsSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	uptime := time.Since(c.global.StartTime)
	summary := &LoadStatsSummary{
		Global:        c.global,
		UptimeSeconds: uptime.Seconds(),
		ActiveSources: len(c.sources),
		TopSources:    c.topSources(topN),
	}

	if c.global.TotalLoads > 0 {
		summary.SuccessRate = float64(c.global.SuccessfulLoads) / float64(c.global.TotalLoads)
		summary.AvgLoadTimeMs = float64(c.global.TotalTimeNs) / float64(c.global.TotalLoads) / 1e6
	}
	return summary
}

// topSources must be called with c.mu held
func (c *LoadStatsCollector) topSources(limit int) []string {
	ids := make([]string, 0, len(c.sources))
	for id := range c.sources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := c.sources[ids[i]].TotalLoads, c.sources[ids[j]].TotalLoads
		if a != b {
			return a > b
		}
		return ids[i] < ids[j]
	})

	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// CleanupOldStats removes hourly buckets older than the retention period
func (c *LoadStatsCollector) CleanupOldStats(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := now.Add(-c.retention).Unix()
	for _, stats := range c.sources {
		for hour := range stats.LoadsByHour {
			if hour < cutoff {
				delete(stats.LoadsByHour, hour)
			}
		}
	}
}

// StartCleanupRoutine prunes old buckets until ctx is done
func (c *LoadStatsCollector) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.CleanupOldStats(now)
		}
	}
}

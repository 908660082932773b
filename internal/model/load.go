package model

import (
	"time"
)

// LoadResponse is the JSON form of a completed load
type LoadResponse struct {
	Dataframes []*Dataframe `json:"dataframes"`
	Metadata   LoadMetadata `json:"metadata"`
}

// LoadMetadata describes a load execution
type LoadMetadata struct {
	SourceID        string    `json:"sourceId,omitempty"`
	SchemaCount     int       `json:"schemaCount"`
	RowCount        int       `json:"rowCount"`
	ExecutionTimeMs int64     `json:"executionTimeMs"`
	LoadedAt        time.Time `json:"loadedAt"`
}

// NewLoadResponse wraps dataframes with their metadata
func NewLoadResponse(sourceID string, frames []*Dataframe, elapsed time.Duration) *LoadResponse {
	rows := 0
	for _, df := range frames {
		rows += df.RowCount()
	}

	return &LoadResponse{
		Dataframes: frames,
		Metadata: LoadMetadata{
			SourceID:        sourceID,
			SchemaCount:     len(frames),
			RowCount:        rows,
			ExecutionTimeMs: elapsed.Milliseconds(),
			LoadedAt:        time.Now().UTC(),
		},
	}
}

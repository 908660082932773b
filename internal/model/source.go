package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SourceTypeHTTP is the only source type served by this gateway
const SourceTypeHTTP = "http"

type SourceStatus string

const (
	SourceStatusActive   SourceStatus = "active"
	SourceStatusArchived SourceStatus = "archived"
)

// Source is a stored HTTP source definition owned by an organization
type Source struct {
	ID        string       `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string       `gorm:"size:255;not null;uniqueIndex:idx_sources_org_name" json:"name"`
	OrgID     string       `gorm:"size:64;not null;uniqueIndex:idx_sources_org_name" json:"orgId"`
	Type      string       `gorm:"size:32;not null;default:'http'" json:"type"`
	Config    SourceConfig `gorm:"type:text;not null" json:"config"`
	Status    SourceStatus `gorm:"size:16;not null;default:'active';index" json:"status"`
	CreatedBy string       `gorm:"size:64" json:"createdBy,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// SourceConfig is a source configuration: a single schema description or a
// container with a "schemas" list
type SourceConfig map[string]interface{}

// Value implements driver.Valuer interface for GORM
func (sc SourceConfig) Value() (driver.Value, error) {
	if sc == nil {
		return "{}", nil
	}
	data, err := json.Marshal(sc)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface for GORM
func (sc *SourceConfig) Scan(value interface{}) error {
	if value == nil {
		*sc = SourceConfig{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported source config column type")
	}

	config := SourceConfig{}
	if err := json.Unmarshal(bytes, &config); err != nil {
		return err
	}
	*sc = config
	return nil
}

// Clone returns a deep copy so callers can rewrite values without touching the original
func (sc SourceConfig) Clone() SourceConfig {
	if sc == nil {
		return nil
	}
	return SourceConfig(cloneValue(map[string]interface{}(sc)).(map[string]interface{}))
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, inner := range v {
			out[key] = cloneValue(inner)
		}
		return out
	case SourceConfig:
		return cloneValue(map[string]interface{}(v))
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

// TableName returns the table name for the Source model
func (Source) TableName() string {
	return "sources"
}

// BeforeCreate generates a new UUID if ID is empty
func (s *Source) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Type == "" {
		s.Type = SourceTypeHTTP
	}
	if s.Status == "" {
		s.Status = SourceStatusActive
	}
	return nil
}

// IsArchived reports whether the source is archived
func (s *Source) IsArchived() bool {
	return s.Status == SourceStatusArchived
}

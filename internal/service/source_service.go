package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dataframe-gateway/internal/logging"
	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/repository"
	"dataframe-gateway/internal/security"
	"dataframe-gateway/internal/utils"
)

var (
	ErrSourceArchived    = errors.New("source is archived")
	ErrUnsupportedSource = errors.New("unsupported source type")
)

// ConfigValidator checks a source configuration without loading it
type ConfigValidator interface {
	Type() string
	Validate(config map[string]interface{}) error
}

// ConfigSealer encrypts and decrypts secrets inside a source configuration
type ConfigSealer interface {
	SealConfig(config model.SourceConfig) (model.SourceConfig, error)
	OpenConfig(config model.SourceConfig) (model.SourceConfig, error)
}

type SourceService interface {
	CreateSource(ctx context.Context, orgID, userID string, req *CreateSourceRequest) (*model.Source, error)
	GetSource(ctx context.Context, orgID, id string) (*model.Source, error)
	ListSources(ctx context.Context, orgID string, archived bool) ([]*model.Source, error)
	UpdateSource(ctx context.Context, orgID, id string, req *UpdateSourceRequest) (*model.Source, error)
	DeleteSource(ctx context.Context, orgID, id string, archive bool) error
	UnarchiveSource(ctx context.Context, orgID, id string) error
	CheckName(ctx context.Context, orgID string, req *CheckNameRequest) (bool, error)
	// ResolveSource returns a stored source with its secrets decrypted
	ResolveSource(ctx context.Context, orgID, id string) (*model.Source, error)
	// OnDelete registers fn to run after a source is permanently deleted
	OnDelete(fn func(id string))
}

type CreateSourceRequest struct {
	Name   string             `json:"name" validate:"required,min=1,max=255"`
	Type   string             `json:"type,omitempty" validate:"omitempty,oneof=http"`
	Config model.SourceConfig `json:"config" validate:"required"`
}

type UpdateSourceRequest struct {
	Name   *string             `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Config *model.SourceConfig `json:"config,omitempty"`
}

type CheckNameRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=255"`
	ExcludeID string `json:"excludeId,omitempty" validate:"omitempty,uuid"`
}

type sourceService struct {
	repo      repository.SourceRepository
	validator ConfigValidator
	sealer    ConfigSealer
	onDelete  []func(id string)
	logger    *slog.Logger
}

// NewSourceService creates a new instance of SourceService. A nil sealer
// stores secrets as given.
func NewSourceService(repo repository.SourceRepository, validator ConfigValidator, sealer ConfigSealer) SourceService {
	return &sourceService{
		repo:      repo,
		validator: validator,
		sealer:    sealer,
		logger:    logging.New("source-service"),
	}
}

func (s *sourceService) CreateSource(ctx context.Context, orgID, userID string, req *CreateSourceRequest) (*model.Source, error) {
	sourceType := req.Type
	if sourceType == "" {
		sourceType = model.SourceTypeHTTP
	}
	if sourceType != s.validator.Type() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, sourceType)
	}

	name := strings.TrimSpace(req.Name)
	exists, err := s.repo.ExistsByName(ctx, orgID, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check source name: %w", err)
	}
	if exists {
		return nil, repository.ErrSourceExists
	}

	config, err := s.prepareConfig(req.Config)
	if err != nil {
		return nil, err
	}

	source := &model.Source{
		Name:      name,
		OrgID:     orgID,
		Type:      sourceType,
		Config:    config,
		Status:    model.SourceStatusActive,
		CreatedBy: userID,
	}

	if err := s.repo.Create(ctx, source); err != nil {
		if errors.Is(err, repository.ErrSourceExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	s.logger.Info("source created", "id", source.ID, "org", orgID, "name", name)
	return masked(source), nil
}

func (s *sourceService) GetSource(ctx context.Context, orgID, id string) (*model.Source, error) {
	source, err := s.find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return masked(source), nil
}

func (s *sourceService) ListSources(ctx context.Context, orgID string, archived bool) ([]*model.Source, error) {
	sources, err := s.repo.List(ctx, orgID, archived)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	out := make([]*model.Source, len(sources))
	for i, source := range sources {
		out[i] = masked(source)
	}
	return out, nil
}

func (s *sourceService) UpdateSource(ctx context.Context, orgID, id string, req *UpdateSourceRequest) (*model.Source, error) {
	source, err := s.find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != source.Name {
			exists, err := s.repo.ExistsByName(ctx, orgID, name, source.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to check source name: %w", err)
			}
			if exists {
				return nil, repository.ErrSourceExists
			}
			source.Name = name
		}
	}

	if req.Config != nil {
		config, err := s.prepareConfig(security.RestoreMasked(*req.Config, source.Config))
		if err != nil {
			return nil, err
		}
		source.Config = config
	}

	if err := s.repo.Update(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to update source: %w", err)
	}

	return masked(source), nil
}

func (s *sourceService) DeleteSource(ctx context.Context, orgID, id string, archive bool) error {
	if _, err := s.find(ctx, orgID, id); err != nil {
		return err
	}

	if archive {
		if err := s.repo.Archive(ctx, id); err != nil {
			return fmt.Errorf("failed to archive source: %w", err)
		}
		s.logger.Info("source archived", "id", id, "org", orgID)
		return nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	s.logger.Info("source deleted", "id", id, "org", orgID)
	for _, fn := range s.onDelete {
		fn(id)
	}
	return nil
}

func (s *sourceService) OnDelete(fn func(id string)) {
	s.onDelete = append(s.onDelete, fn)
}

func (s *sourceService) UnarchiveSource(ctx context.Context, orgID, id string) error {
	if _, err := s.find(ctx, orgID, id); err != nil {
		return err
	}

	if err := s.repo.Unarchive(ctx, id); err != nil {
		return fmt.Errorf("failed to unarchive source: %w", err)
	}
	return nil
}

// CheckName reports whether name is still available within the organization
func (s *sourceService) CheckName(ctx context.Context, orgID string, req *CheckNameRequest) (bool, error) {
	exists, err := s.repo.ExistsByName(ctx, orgID, strings.TrimSpace(req.Name), req.ExcludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check source name: %w", err)
	}
	return !exists, nil
}

func (s *sourceService) ResolveSource(ctx context.Context, orgID, id string) (*model.Source, error) {
	source, err := s.find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if s.sealer != nil {
		config, err := s.sealer.OpenConfig(source.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt source credentials: %w", err)
		}
		source.Config = config
	}
	return source, nil
}

// find loads a source and hides sources of other organizations
func (s *sourceService) find(ctx context.Context, orgID, id string) (*model.Source, error) {
	if !utils.IsValidUUID(id) {
		return nil, repository.ErrInvalidUUID
	}

	source, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if source.OrgID != orgID {
		return nil, repository.ErrSourceNotFound
	}
	return source, nil
}

// prepareConfig validates a configuration and seals its secrets for storage
func (s *sourceService) prepareConfig(config model.SourceConfig) (model.SourceConfig, error) {
	if err := s.validator.Validate(config); err != nil {
		return nil, err
	}
	if s.sealer == nil {
		return config.Clone(), nil
	}

	sealed, err := s.sealer.SealConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt source credentials: %w", err)
	}
	return sealed, nil
}

func masked(source *model.Source) *model.Source {
	out := *source
	out.Config = security.MaskConfig(source.Config)
	return &out
}

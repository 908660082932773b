package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"dataframe-gateway/internal/model"
)

type sourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository creates a new instance of SourceRepository
func NewSourceRepository(db *gorm.DB) SourceRepository {
	return &sourceRepository{db: db}
}

// Create a new source
func (r *sourceRepository) Create(ctx context.Context, source *model.Source) error {
	if err := r.db.WithContext(ctx).Create(source).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSourceExists
		}
		return dbError(err)
	}
	return nil
}

// GetByID retrieves a source by its UUID
func (r *sourceRepository) GetByID(ctx context.Context, id string) (*model.Source, error) {
	var source model.Source
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&source)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, dbError(result.Error)
	}
	return &source, nil
}

// GetByName retrieves a source by its name within an organization
func (r *sourceRepository) GetByName(ctx context.Context, orgID, name string) (*model.Source, error) {
	var source model.Source
	result := r.db.WithContext(ctx).Where("org_id = ? AND name = ?", orgID, name).First(&source)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, dbError(result.Error)
	}
	return &source, nil
}

// List retrieves the sources of an organization, newest first
func (r *sourceRepository) List(ctx context.Context, orgID string, archived bool) ([]*model.Source, error) {
	status := model.SourceStatusActive
	if archived {
		status = model.SourceStatusArchived
	}

	var sources []*model.Source
	result := r.db.WithContext(ctx).
		Where("org_id = ? AND status = ?", orgID, status).
		Order("created_at DESC").
		Find(&sources)
	if result.Error != nil {
		return nil, dbError(result.Error)
	}
	return sources, nil
}

// Update updates an existing source
func (r *sourceRepository) Update(ctx context.Context, source *model.Source) error {
	if err := r.db.WithContext(ctx).Save(source).Error; err != nil {
		return dbError(err)
	}
	return nil
}

// Delete removes a source permanently
func (r *sourceRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Source{})
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSourceNotFound
	}
	return nil
}

// Archive sets a source status to archived
func (r *sourceRepository) Archive(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, model.SourceStatusArchived)
}

// Unarchive sets a source status back to active
func (r *sourceRepository) Unarchive(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, model.SourceStatusActive)
}

func (r *sourceRepository) setStatus(ctx context.Context, id string, status model.SourceStatus) error {
	result := r.db.WithContext(ctx).Model(&model.Source{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSourceNotFound
	}
	return nil
}

// ExistsByName checks whether a name is taken within an organization
func (r *sourceRepository) ExistsByName(ctx context.Context, orgID, name, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Source{}).Where("org_id = ? AND name = ?", orgID, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, dbError(err)
	}
	return count > 0, nil
}

package repository

import (
	"context"

	"dataframe-gateway/internal/model"
)

// SourceRepository defines the interface for source definition operations
type SourceRepository interface {
	// Create a new source
	Create(ctx context.Context, source *model.Source) error

	// GetByID retrieves a source by its UUID
	GetByID(ctx context.Context, id string) (*model.Source, error)

	// GetByName retrieves a source by its name within an organization
	GetByName(ctx context.Context, orgID, name string) (*model.Source, error)

	// List retrieves the sources of an organization, archived or not
	List(ctx context.Context, orgID string, archived bool) ([]*model.Source, error)

	// Update updates an existing source
	Update(ctx context.Context, source *model.Source) error

	// Delete removes a source permanently
	Delete(ctx context.Context, id string) error

	// Archive sets a source status to archived
	Archive(ctx context.Context, id string) error

	// Unarchive sets a source status back to active
	Unarchive(ctx context.Context, id string) error

	// ExistsByName checks whether a name is taken within an organization,
	// ignoring the source with excludeID
	ExistsByName(ctx context.Context, orgID, name, excludeID string) (bool, error)
}

package zone

import (
	"context"
)

// Repository persists zones. Writes are last-writer-wins; there is no
// version column.
type Repository interface {
	FindByID(context context.Context, id string) (*Zone, error)
	FindByKey(context context.Context, pagePath, name string) (*Zone, error)

	// ListByPage returns the zones of one page ordered by name, or every
	// zone ordered by page then name when pagePath is empty.
	ListByPage(context context.Context, pagePath string) ([]*Zone, error)

	// Create returns ErrDuplicate when the (page, name) key is taken.
	Create(context context.Context, zone *Zone) error

	// CreateMany inserts zones in one transaction, silently skipping keys
	// that already exist. It returns the zones actually inserted.
	CreateMany(context context.Context, zones []*Zone) ([]*Zone, error)

	// Update overwrites description, purpose, assignment, overrides and
	// UpdatedAt. Page path and name are immutable.
	Update(context context.Context, zone *Zone) error

	// Delete removes the zone and returns it as it was.
	Delete(context context.Context, id string) (*Zone, error)

	Ping(context context.Context) error
}

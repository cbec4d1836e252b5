package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geotable/internal/geotable"
	"github.com/sells-group/geotable/internal/raster"
)

// DatasetKind distinguishes the two payloads the catalog holds.
type DatasetKind string

const (
	KindVector DatasetKind = "vector"
	KindRaster DatasetKind = "raster"
)

// ErrNotFound is returned when a named dataset does not exist.
var ErrNotFound = eris.New("store: dataset not found")

// DatasetInfo is the catalog entry for a stored dataset.
type DatasetInfo struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Kind      DatasetKind `json:"kind"`
	SRID      int         `json:"srid"`
	RowCount  int         `json:"row_count"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Store persists named datasets. Saving under an existing name replaces
// the previous payload.
type Store interface {
	// Vector datasets
	SaveTable(ctx context.Context, name string, t *geotable.Table) (*DatasetInfo, error)
	LoadTable(ctx context.Context, name string) (*geotable.Table, error)

	// Raster datasets
	SaveGrid(ctx context.Context, name string, g *raster.Grid) (*DatasetInfo, error)
	LoadGrid(ctx context.Context, name string) (*raster.Grid, error)

	// Catalog
	Get(ctx context.Context, name string) (*DatasetInfo, error)
	List(ctx context.Context) ([]DatasetInfo, error)
	Delete(ctx context.Context, name string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

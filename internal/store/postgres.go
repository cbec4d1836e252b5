package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geotable/internal/db"
	"github.com/sells-group/geotable/internal/geotable"
	"github.com/sells-group/geotable/internal/raster"
	"github.com/sells-group/geotable/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool. The
// initial ping is retried with backoff so a briefly unreachable server
// does not fail startup.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("postgres", "ping")
	if err := resilience.Do(ctx, retryCfg, pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with a
// pgxmock pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

// Pool exposes the underlying pool for helpers that need direct access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	kind       TEXT NOT NULL,
	srid       INTEGER NOT NULL DEFAULT 0,
	row_count  INTEGER NOT NULL DEFAULT 0,
	schema     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS features (
	dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	idx        INTEGER NOT NULL,
	attrs      JSONB NOT NULL,
	geom       BYTEA,
	PRIMARY KEY (dataset_id, idx)
);

CREATE TABLE IF NOT EXISTS raster_cells (
	dataset_id TEXT PRIMARY KEY REFERENCES datasets(id) ON DELETE CASCADE,
	cells      BYTEA NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_datasets_kind ON datasets(kind);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveTable(ctx context.Context, name string, t *geotable.Table) (*DatasetInfo, error) {
	schemaJSON, err := json.Marshal(schemaOf(t))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal schema")
	}

	rows := make([][]any, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		attrs, err := encodeAttrs(t, i)
		if err != nil {
			return nil, err
		}
		geomBlob, err := encodeGeom(t, i)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []any{i, string(attrs), geomBlob})
	}

	info, err := s.upsertDataset(ctx, name, KindVector, t.SRID(), t.Len(), schemaJSON)
	if err != nil {
		return nil, err
	}

	featureRows := make([][]any, len(rows))
	for i, r := range rows {
		featureRows[i] = append([]any{info.ID}, r...)
	}
	if _, err := db.CopyFrom(ctx, s.pool, "features",
		[]string{"dataset_id", "idx", "attrs", "geom"}, featureRows); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *PostgresStore) LoadTable(ctx context.Context, name string) (*geotable.Table, error) {
	info, schemaJSON, err := s.getWithSchema(ctx, name, KindVector)
	if err != nil {
		return nil, err
	}

	var schema tableSchema
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal schema")
	}
	t, err := newTableFromSchema(schema)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT attrs, geom FROM features WHERE dataset_id = $1 ORDER BY idx`, info.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load features of %s", name)
	}
	defer rows.Close()

	for rows.Next() {
		var attrsJSON []byte
		var geomBlob []byte
		if err := rows.Scan(&attrsJSON, &geomBlob); err != nil {
			return nil, eris.Wrap(err, "postgres: scan feature")
		}
		attrs, err := decodeAttrs(attrsJSON, schema)
		if err != nil {
			return nil, err
		}
		g, err := decodeGeom(geomBlob)
		if err != nil {
			return nil, err
		}
		if err := t.Append(attrs, g); err != nil {
			return nil, eris.Wrapf(err, "postgres: rebuild %s", name)
		}
	}
	return t, eris.Wrap(rows.Err(), "postgres: load features iterate")
}

func (s *PostgresStore) SaveGrid(ctx context.Context, name string, g *raster.Grid) (*DatasetInfo, error) {
	metaJSON, err := json.Marshal(metaOf(g))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal raster header")
	}

	info, err := s.upsertDataset(ctx, name, KindRaster, g.SRID(), g.NumCells(), metaJSON)
	if err != nil {
		return nil, err
	}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO raster_cells (dataset_id, cells) VALUES ($1, $2)`,
		info.ID, encodeCells(g),
	); err != nil {
		return nil, eris.Wrapf(err, "postgres: insert raster cells for %s", name)
	}
	return info, nil
}

func (s *PostgresStore) LoadGrid(ctx context.Context, name string) (*raster.Grid, error) {
	info, metaJSON, err := s.getWithSchema(ctx, name, KindRaster)
	if err != nil {
		return nil, err
	}

	var meta gridMeta
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal raster header")
	}

	var cells []byte
	err = s.pool.QueryRow(ctx,
		`SELECT cells FROM raster_cells WHERE dataset_id = $1`, info.ID,
	).Scan(&cells)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load raster cells of %s", name)
	}
	return decodeGrid(meta, cells)
}

func (s *PostgresStore) Get(ctx context.Context, name string) (*DatasetInfo, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, kind, srid, row_count, created_at, updated_at FROM datasets WHERE name = $1`,
		name,
	)
	info, err := scanPgDataset(row)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]DatasetInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, kind, srid, row_count, created_at, updated_at FROM datasets ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list datasets")
	}
	defer rows.Close()

	var infos []DatasetInfo
	for rows.Next() {
		info, err := scanPgDataset(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, *info)
	}
	return infos, eris.Wrap(rows.Err(), "postgres: list datasets iterate")
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM datasets WHERE name = $1`, name)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete dataset %s", name)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// upsertDataset writes the catalog row for a save. On a name collision
// the existing id and created_at win, so overwriting a dataset keeps
// its identity; the previous payload rows are cleared either way.
func (s *PostgresStore) upsertDataset(ctx context.Context, name string, kind DatasetKind, srid, rowCount int, schemaJSON []byte) (*DatasetInfo, error) {
	now := time.Now().UTC()
	candidate := []any{uuid.New().String(), name, string(kind), srid, rowCount, string(schemaJSON), now, now}

	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "datasets",
		Columns:      []string{"id", "name", "kind", "srid", "row_count", "schema", "created_at", "updated_at"},
		ConflictKeys: []string{"name"},
		UpdateCols:   []string{"kind", "srid", "row_count", "schema", "updated_at"},
	}, [][]any{candidate}); err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert dataset %s", name)
	}

	info := &DatasetInfo{
		Name:      name,
		Kind:      kind,
		SRID:      srid,
		RowCount:  rowCount,
		UpdatedAt: now,
	}
	if err := s.pool.QueryRow(ctx,
		`SELECT id, created_at FROM datasets WHERE name = $1`, name,
	).Scan(&info.ID, &info.CreatedAt); err != nil {
		return nil, eris.Wrapf(err, "postgres: look up dataset %s", name)
	}

	for _, del := range []string{
		`DELETE FROM features WHERE dataset_id = $1`,
		`DELETE FROM raster_cells WHERE dataset_id = $1`,
	} {
		if _, err := s.pool.Exec(ctx, del, info.ID); err != nil {
			return nil, eris.Wrapf(err, "postgres: clear payload of %s", name)
		}
	}
	return info, nil
}

func (s *PostgresStore) getWithSchema(ctx context.Context, name string, kind DatasetKind) (*DatasetInfo, []byte, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, kind, srid, row_count, created_at, updated_at, schema FROM datasets WHERE name = $1`,
		name,
	)

	var info DatasetInfo
	var schemaJSON []byte
	err := row.Scan(&info.ID, &info.Name, &info.Kind, &info.SRID, &info.RowCount,
		&info.CreatedAt, &info.UpdatedAt, &schemaJSON)
	if err == pgx.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, eris.Wrapf(err, "postgres: get dataset %s", name)
	}
	if info.Kind != kind {
		return nil, nil, eris.Errorf("store: dataset %s is %s, not %s", name, info.Kind, kind)
	}
	return &info, schemaJSON, nil
}

func scanPgDataset(row scannable) (*DatasetInfo, error) {
	var info DatasetInfo
	err := row.Scan(&info.ID, &info.Name, &info.Kind, &info.SRID, &info.RowCount,
		&info.CreatedAt, &info.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan dataset")
	}
	return &info, nil
}

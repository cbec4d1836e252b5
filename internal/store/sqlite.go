package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/geotable/internal/geotable"
	"github.com/sells-group/geotable/internal/raster"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	kind       TEXT NOT NULL,
	srid       INTEGER NOT NULL DEFAULT 0,
	row_count  INTEGER NOT NULL DEFAULT 0,
	schema     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS features (
	dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	idx        INTEGER NOT NULL,
	attrs      TEXT NOT NULL,
	geom       BLOB,
	PRIMARY KEY (dataset_id, idx)
);

CREATE TABLE IF NOT EXISTS raster_cells (
	dataset_id TEXT PRIMARY KEY REFERENCES datasets(id) ON DELETE CASCADE,
	cells      BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_datasets_kind ON datasets(kind);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveTable(ctx context.Context, name string, t *geotable.Table) (*DatasetInfo, error) {
	schemaJSON, err := json.Marshal(schemaOf(t))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal schema")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin save")
	}
	defer tx.Rollback()

	info, err := s.upsertDataset(ctx, tx, name, KindVector, t.SRID(), t.Len(), string(schemaJSON))
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO features (dataset_id, idx, attrs, geom) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare feature insert")
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		attrs, err := encodeAttrs(t, i)
		if err != nil {
			return nil, err
		}
		geomBlob, err := encodeGeom(t, i)
		if err != nil {
			return nil, err
		}
		if _, err := stmt.ExecContext(ctx, info.ID, i, string(attrs), geomBlob); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert feature %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit save")
	}
	return info, nil
}

func (s *SQLiteStore) LoadTable(ctx context.Context, name string) (*geotable.Table, error) {
	info, schemaJSON, err := s.getWithSchema(ctx, name, KindVector)
	if err != nil {
		return nil, err
	}

	var schema tableSchema
	if err := json.Unmarshal([]byte(schemaJSON), &schema); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal schema")
	}
	t, err := newTableFromSchema(schema)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT attrs, geom FROM features WHERE dataset_id = ? ORDER BY idx`, info.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load features of %s", name)
	}
	defer rows.Close()

	for rows.Next() {
		var attrsJSON string
		var geomBlob []byte
		if err := rows.Scan(&attrsJSON, &geomBlob); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan feature")
		}
		attrs, err := decodeAttrs([]byte(attrsJSON), schema)
		if err != nil {
			return nil, err
		}
		g, err := decodeGeom(geomBlob)
		if err != nil {
			return nil, err
		}
		if err := t.Append(attrs, g); err != nil {
			return nil, eris.Wrapf(err, "sqlite: rebuild %s", name)
		}
	}
	return t, eris.Wrap(rows.Err(), "sqlite: load features iterate")
}

func (s *SQLiteStore) SaveGrid(ctx context.Context, name string, g *raster.Grid) (*DatasetInfo, error) {
	metaJSON, err := json.Marshal(metaOf(g))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal raster header")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin save")
	}
	defer tx.Rollback()

	info, err := s.upsertDataset(ctx, tx, name, KindRaster, g.SRID(), g.NumCells(), string(metaJSON))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO raster_cells (dataset_id, cells) VALUES (?, ?)`,
		info.ID, encodeCells(g),
	); err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert raster cells for %s", name)
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit save")
	}
	return info, nil
}

func (s *SQLiteStore) LoadGrid(ctx context.Context, name string) (*raster.Grid, error) {
	info, metaJSON, err := s.getWithSchema(ctx, name, KindRaster)
	if err != nil {
		return nil, err
	}

	var meta gridMeta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal raster header")
	}

	var cells []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT cells FROM raster_cells WHERE dataset_id = ?`, info.ID,
	).Scan(&cells)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load raster cells of %s", name)
	}
	return decodeGrid(meta, cells)
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (*DatasetInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, kind, srid, row_count, created_at, updated_at FROM datasets WHERE name = ?`,
		name,
	)
	return scanDataset(row)
}

func (s *SQLiteStore) List(ctx context.Context) ([]DatasetInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, srid, row_count, created_at, updated_at FROM datasets ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list datasets")
	}
	defer rows.Close()

	var infos []DatasetInfo
	for rows.Next() {
		info, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, *info)
	}
	return infos, eris.Wrap(rows.Err(), "sqlite: list datasets iterate")
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE name = ?`, name)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete dataset %s", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// upsertDataset writes the catalog row, replacing any payload stored
// under the same name while keeping its id and created_at.
func (s *SQLiteStore) upsertDataset(ctx context.Context, tx *sql.Tx, name string, kind DatasetKind, srid, rowCount int, schemaJSON string) (*DatasetInfo, error) {
	now := time.Now().UTC()
	info := &DatasetInfo{
		Name:      name,
		Kind:      kind,
		SRID:      srid,
		RowCount:  rowCount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var existingID string
	var createdAt time.Time
	err := tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM datasets WHERE name = ?`, name,
	).Scan(&existingID, &createdAt)
	switch {
	case err == sql.ErrNoRows:
		info.ID = uuid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO datasets (id, name, kind, srid, row_count, schema, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			info.ID, name, string(kind), srid, rowCount, schemaJSON, now, now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert dataset %s", name)
		}
	case err != nil:
		return nil, eris.Wrapf(err, "sqlite: look up dataset %s", name)
	default:
		info.ID = existingID
		info.CreatedAt = createdAt
		_, err = tx.ExecContext(ctx,
			`UPDATE datasets SET kind = ?, srid = ?, row_count = ?, schema = ?, updated_at = ? WHERE id = ?`,
			string(kind), srid, rowCount, schemaJSON, now, existingID,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: update dataset %s", name)
		}
		for _, del := range []string{
			`DELETE FROM features WHERE dataset_id = ?`,
			`DELETE FROM raster_cells WHERE dataset_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, del, existingID); err != nil {
				return nil, eris.Wrapf(err, "sqlite: clear payload of %s", name)
			}
		}
	}
	return info, nil
}

func (s *SQLiteStore) getWithSchema(ctx context.Context, name string, kind DatasetKind) (*DatasetInfo, string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, kind, srid, row_count, created_at, updated_at, schema FROM datasets WHERE name = ?`,
		name,
	)

	var info DatasetInfo
	var schemaJSON string
	err := row.Scan(&info.ID, &info.Name, &info.Kind, &info.SRID, &info.RowCount,
		&info.CreatedAt, &info.UpdatedAt, &schemaJSON)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", eris.Wrapf(err, "sqlite: get dataset %s", name)
	}
	if info.Kind != kind {
		return nil, "", eris.Errorf("store: dataset %s is %s, not %s", name, info.Kind, kind)
	}
	return &info, schemaJSON, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDataset(row scannable) (*DatasetInfo, error) {
	var info DatasetInfo
	err := row.Scan(&info.ID, &info.Name, &info.Kind, &info.SRID, &info.RowCount,
		&info.CreatedAt, &info.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan dataset")
	}
	return &info, nil
}

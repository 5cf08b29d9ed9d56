package zone

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/taibuivan/atelier/internal/platform/database/schema"
	"github.com/taibuivan/atelier/internal/platform/dberr"
	"github.com/taibuivan/atelier/internal/platform/sqlite"
)

// SQLiteRepository keeps zones in the embedded database; overrides are JSON text.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func scanSQLiteZone(row rowScanner) (*Zone, error) {
	z := &Zone{}
	var (
		assigned             sql.NullString
		overrides            string
		createdAt, updatedAt string
	)

	err := row.Scan(
		&z.ID, &z.PagePath, &z.Name, &z.Description, &z.Purpose,
		&assigned, &overrides, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assigned.Valid {
		z.AssignedAssetID = &assigned.String
	}
	if err := json.Unmarshal([]byte(overrides), &z.Overrides); err != nil {
		return nil, fmt.Errorf("decode overrides: %w", err)
	}
	if z.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if z.UpdatedAt, err = sqlite.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return z, nil
}

func sqliteZoneArgs(z *Zone) ([]any, error) {
	overrides, err := json.Marshal(z.Overrides)
	if err != nil {
		return nil, fmt.Errorf("encode overrides: %w", err)
	}
	return []any{
		z.ID, z.PagePath, z.Name, z.Description, string(z.Purpose),
		nullableString(z.AssignedAssetID), string(overrides),
		sqlite.FormatTime(z.CreatedAt), sqlite.FormatTime(z.UpdatedAt),
	}, nil
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

const sqliteZonePlaceholders = "?, ?, ?, ?, ?, ?, ?, ?, ?"

func (repository *SQLiteRepository) FindByID(context context.Context, id string) (*Zone, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`,
		zoneColumns, schema.PageZone.Table, schema.PageZone.ID,
	)

	z, err := scanSQLiteZone(repository.db.QueryRowContext(context, query, id))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return z, dberr.Wrap(err, "find_zone")
}

func (repository *SQLiteRepository) FindByKey(context context.Context, pagePath, name string) (*Zone, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s = ?`,
		zoneColumns, schema.PageZone.Table, schema.PageZone.PagePath, schema.PageZone.Name,
	)

	z, err := scanSQLiteZone(repository.db.QueryRowContext(context, query, pagePath, name))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return z, dberr.Wrap(err, "find_zone_by_key")
}

func (repository *SQLiteRepository) ListByPage(context context.Context, pagePath string) ([]*Zone, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE (? = '' OR %s = ?) ORDER BY %s, %s`,
		zoneColumns, schema.PageZone.Table, schema.PageZone.PagePath,
		schema.PageZone.PagePath, schema.PageZone.Name,
	)

	rows, err := repository.db.QueryContext(context, query, pagePath, pagePath)
	if err != nil {
		return nil, dberr.Wrap(err, "list_zones")
	}
	defer rows.Close()

	zones := []*Zone{}
	for rows.Next() {
		z, err := scanSQLiteZone(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_zone")
		}
		zones = append(zones, z)
	}
	return zones, dberr.Wrap(rows.Err(), "list_zones")
}

func (repository *SQLiteRepository) Create(context context.Context, z *Zone) error {
	args, err := sqliteZoneArgs(z)
	if err != nil {
		return err
	}

	_, err = repository.db.ExecContext(context, insertZoneQuery(sqliteZonePlaceholders, false), args...)
	if dberr.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return dberr.Wrap(err, "create_zone")
}

func (repository *SQLiteRepository) CreateMany(context context.Context, zones []*Zone) ([]*Zone, error) {
	tx, err := repository.db.BeginTx(context, nil)
	if err != nil {
		return nil, dberr.Wrap(err, "create_zones_begin")
	}
	defer func() { _ = tx.Rollback() }()

	query := insertZoneQuery(sqliteZonePlaceholders, true)
	created := make([]*Zone, 0, len(zones))
	for _, z := range zones {
		args, err := sqliteZoneArgs(z)
		if err != nil {
			return nil, err
		}

		var id string
		err = tx.QueryRowContext(context, query, args...).Scan(&id)
		if dberr.IsNoRows(err) {
			continue
		}
		if err != nil {
			return nil, dberr.Wrap(err, "create_zones")
		}
		created = append(created, z)
	}

	if err := tx.Commit(); err != nil {
		return nil, dberr.Wrap(err, "create_zones_commit")
	}
	return created, nil
}

func (repository *SQLiteRepository) Update(context context.Context, z *Zone) error {
	overrides, err := json.Marshal(z.Overrides)
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = ? WHERE %s = ?`,
		schema.PageZone.Table,
		schema.PageZone.Description, schema.PageZone.Purpose, schema.PageZone.AssignedAssetID,
		schema.PageZone.Overrides, schema.PageZone.UpdatedAt,
		schema.PageZone.ID,
	)

	result, err := repository.db.ExecContext(context, query,
		z.Description, string(z.Purpose), nullableString(z.AssignedAssetID),
		string(overrides), sqlite.FormatTime(z.UpdatedAt), z.ID,
	)
	if err != nil {
		return dberr.Wrap(err, "update_zone")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return dberr.Wrap(err, "update_zone")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (repository *SQLiteRepository) Delete(context context.Context, id string) (*Zone, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ? RETURNING %s`,
		schema.PageZone.Table, schema.PageZone.ID, zoneColumns,
	)

	z, err := scanSQLiteZone(repository.db.QueryRowContext(context, query, id))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return z, dberr.Wrap(err, "delete_zone")
}

func (repository *SQLiteRepository) Ping(context context.Context) error {
	return sqlite.Ping(context, repository.db)
}

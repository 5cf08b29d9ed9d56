package zone

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/atelier/internal/platform/database/schema"
	"github.com/taibuivan/atelier/internal/platform/dberr"
	"github.com/taibuivan/atelier/internal/platform/postgres"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

var zoneColumns = strings.Join(schema.PageZone.Columns(), ", ")

func scanPostgresZone(row rowScanner) (*Zone, error) {
	z := &Zone{}
	err := row.Scan(
		&z.ID, &z.PagePath, &z.Name, &z.Description, &z.Purpose,
		&z.AssignedAssetID, &z.Overrides, &z.CreatedAt, &z.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return z, nil
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Zone, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		zoneColumns, schema.PageZone.Table, schema.PageZone.ID,
	)

	z, err := scanPostgresZone(repository.db.QueryRow(context, query, id))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return z, dberr.Wrap(err, "find_zone")
}

func (repository *PostgresRepository) FindByKey(context context.Context, pagePath, name string) (*Zone, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		zoneColumns, schema.PageZone.Table, schema.PageZone.PagePath, schema.PageZone.Name,
	)

	z, err := scanPostgresZone(repository.db.QueryRow(context, query, pagePath, name))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return z, dberr.Wrap(err, "find_zone_by_key")
}

func (repository *PostgresRepository) ListByPage(context context.Context, pagePath string) ([]*Zone, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE ($1 = '' OR %s = $1)
		ORDER BY %s, %s
	`,
		zoneColumns, schema.PageZone.Table,
		schema.PageZone.PagePath,
		schema.PageZone.PagePath, schema.PageZone.Name,
	)

	rows, err := repository.db.Query(context, query, pagePath)
	if err != nil {
		return nil, dberr.Wrap(err, "list_zones")
	}
	defer rows.Close()

	zones := []*Zone{}
	for rows.Next() {
		z, err := scanPostgresZone(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_zone")
		}
		zones = append(zones, z)
	}
	return zones, dberr.Wrap(rows.Err(), "list_zones")
}

func insertZoneQuery(placeholders string, skipExisting bool) string {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, schema.PageZone.Table, zoneColumns, placeholders)
	if skipExisting {
		query += fmt.Sprintf(` ON CONFLICT (%s, %s) DO NOTHING RETURNING %s`,
			schema.PageZone.PagePath, schema.PageZone.Name, schema.PageZone.ID)
	}
	return query
}

const postgresZonePlaceholders = "$1, $2, $3, $4, $5, $6, $7, $8, $9"

func postgresZoneArgs(z *Zone) []any {
	return []any{
		z.ID, z.PagePath, z.Name, z.Description, string(z.Purpose),
		z.AssignedAssetID, z.Overrides, z.CreatedAt, z.UpdatedAt,
	}
}

func (repository *PostgresRepository) Create(context context.Context, z *Zone) error {
	_, err := repository.db.Exec(context, insertZoneQuery(postgresZonePlaceholders, false), postgresZoneArgs(z)...)
	if dberr.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return dberr.Wrap(err, "create_zone")
}

func (repository *PostgresRepository) CreateMany(context context.Context, zones []*Zone) ([]*Zone, error) {
	tx, err := repository.db.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "create_zones_begin")
	}
	defer func() { _ = tx.Rollback(context) }()

	query := insertZoneQuery(postgresZonePlaceholders, true)
	created := make([]*Zone, 0, len(zones))
	for _, z := range zones {
		var id string
		err := tx.QueryRow(context, query, postgresZoneArgs(z)...).Scan(&id)
		if dberr.IsNoRows(err) {
			continue
		}
		if err != nil {
			return nil, dberr.Wrap(err, "create_zones")
		}
		created = append(created, z)
	}

	if err := tx.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "create_zones_commit")
	}
	return created, nil
}

func (repository *PostgresRepository) Update(context context.Context, z *Zone) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $1, %s = $2, %s = $3, %s = $4, %s = $5
		WHERE %s = $6
	`,
		schema.PageZone.Table,
		schema.PageZone.Description, schema.PageZone.Purpose, schema.PageZone.AssignedAssetID,
		schema.PageZone.Overrides, schema.PageZone.UpdatedAt,
		schema.PageZone.ID,
	)

	tag, err := repository.db.Exec(context, query,
		z.Description, string(z.Purpose), z.AssignedAssetID, z.Overrides, z.UpdatedAt, z.ID,
	)
	if err != nil {
		return dberr.Wrap(err, "update_zone")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) Delete(context context.Context, id string) (*Zone, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 RETURNING %s`,
		schema.PageZone.Table, schema.PageZone.ID, zoneColumns,
	)

	z, err := scanPostgresZone(repository.db.QueryRow(context, query, id))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return z, dberr.Wrap(err, "delete_zone")
}

func (repository *PostgresRepository) Ping(context context.Context) error {
	return postgres.Ping(context, repository.db)
}

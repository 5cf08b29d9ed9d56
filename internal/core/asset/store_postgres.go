package asset

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/atelier/internal/delivery"
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

// rowScanner is satisfied by pgx and database/sql rows alike.
type rowScanner interface {
	Scan(dest ...any) error
}

var assetColumns = strings.Join(schema.CatalogAsset.Columns(), ", ")

func scanPostgresAsset(row rowScanner) (*Asset, error) {
	a := &Asset{}
	var kind, value string

	err := row.Scan(
		&a.ID, &kind, &value, &a.DisplayName, &a.Category, &a.Tags, &a.CustomMetadata,
		&a.Width, &a.Height, &a.Visibility, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Source = delivery.NewLocator(delivery.LocatorKind(kind), value)
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return a, nil
}

func (repository *PostgresRepository) CreateAsset(context context.Context, a *Asset) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULL)
	`, schema.CatalogAsset.Table, assetColumns)

	_, err := repository.db.Exec(context, query,
		a.ID, string(a.Source.Kind()), a.Source.Value(), a.DisplayName, a.Category, a.Tags, a.CustomMetadata,
		a.Width, a.Height, string(a.Visibility), a.CreatedAt, a.UpdatedAt,
	)
	return dberr.Wrap(err, "create_asset")
}

func (repository *PostgresRepository) GetAsset(context context.Context, id string) (*Asset, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL
	`,
		assetColumns, schema.CatalogAsset.Table,
		schema.CatalogAsset.ID, schema.CatalogAsset.DeletedAt,
	)

	a, err := scanPostgresAsset(repository.db.QueryRow(context, query, id))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dberr.Wrap(err, "get_asset")
	}
	return a, nil
}

func (repository *PostgresRepository) LookupAsset(context context.Context, id string) (*Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, assetColumns, schema.CatalogAsset.Table, schema.CatalogAsset.ID)

	a, err := scanPostgresAsset(repository.db.QueryRow(context, query, id))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dberr.Wrap(err, "lookup_asset")
	}
	return a, nil
}

func (repository *PostgresRepository) ListAssets(context context.Context, f Filter, limit, offset int) ([]*Asset, int, error) {
	where, args := listConditions(f, func(n int) string { return "$" + strconv.Itoa(n) })

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, schema.CatalogAsset.Table, where)

	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_assets")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY %s DESC, %s DESC
	`,
		assetColumns, schema.CatalogAsset.Table, where,
		schema.CatalogAsset.CreatedAt, schema.CatalogAsset.ID,
	)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, max(offset, 0))
	}

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_assets")
	}
	defer rows.Close()

	assets := []*Asset{}
	for rows.Next() {
		a, err := scanPostgresAsset(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_asset")
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_assets")
	}

	return assets, total, nil
}

func (repository *PostgresRepository) UpdateAsset(context context.Context, id string, patch Patch, updatedAt time.Time) (*Asset, error) {
	sets, args := patchAssignments(patch, func(n int) string { return "$" + strconv.Itoa(n) }, func(v any) any { return v })
	sets = append(sets, fmt.Sprintf("%s = $%d", schema.CatalogAsset.UpdatedAt, len(args)+1))
	args = append(args, updatedAt, id)

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s
		WHERE %s = $%d AND %s IS NULL
		RETURNING %s
	`,
		schema.CatalogAsset.Table, strings.Join(sets, ", "),
		schema.CatalogAsset.ID, len(args), schema.CatalogAsset.DeletedAt,
		assetColumns,
	)

	a, err := scanPostgresAsset(repository.db.QueryRow(context, query, args...))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dberr.Wrap(err, "update_asset")
	}
	return a, nil
}

func (repository *PostgresRepository) SoftDeleteAsset(context context.Context, id string, deletedAt time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $2 WHERE %s = $1 AND %s IS NULL`,
		schema.CatalogAsset.Table, schema.CatalogAsset.DeletedAt, schema.CatalogAsset.UpdatedAt,
		schema.CatalogAsset.ID, schema.CatalogAsset.DeletedAt,
	)

	cmd, err := repository.db.Exec(context, query, id, deletedAt)
	if err != nil {
		return dberr.Wrap(err, "soft_delete_asset")
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) HardDeleteAsset(context context.Context, id string) (*Asset, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 RETURNING %s`,
		schema.CatalogAsset.Table, schema.CatalogAsset.ID, assetColumns,
	)

	a, err := scanPostgresAsset(repository.db.QueryRow(context, query, id))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dberr.Wrap(err, "hard_delete_asset")
	}
	return a, nil
}

func (repository *PostgresRepository) Ping(context context.Context) error {
	return postgres.Ping(context, repository.db)
}

// # Query Builders

// listConditions renders the WHERE clause shared by both stores.
func listConditions(f Filter, placeholder func(n int) string) (string, []any) {
	conditions := []string{schema.CatalogAsset.DeletedAt + " IS NULL"}
	args := []any{}

	if f.Category != "" {
		args = append(args, f.Category)
		conditions = append(conditions, fmt.Sprintf("%s = %s", schema.CatalogAsset.Category, placeholder(len(args))))
	}
	if f.Visibility != "" {
		args = append(args, string(f.Visibility))
		conditions = append(conditions, fmt.Sprintf("%s = %s", schema.CatalogAsset.Visibility, placeholder(len(args))))
	}

	return strings.Join(conditions, " AND "), args
}

// patchAssignments renders "column = placeholder" pairs for the non-nil patch
// fields. encode adapts list and map values to the backend's column type.
func patchAssignments(patch Patch, placeholder func(n int) string, encode func(v any) any) ([]string, []any) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = %s", column, placeholder(len(args))))
	}

	if patch.DisplayName != nil {
		add(schema.CatalogAsset.DisplayName, *patch.DisplayName)
	}
	if patch.Category != nil {
		add(schema.CatalogAsset.Category, *patch.Category)
	}
	if patch.Tags != nil {
		add(schema.CatalogAsset.Tags, encode(patch.Tags))
	}
	if patch.CustomMetadata != nil {
		add(schema.CatalogAsset.CustomMetadata, encode(patch.CustomMetadata))
	}
	if patch.Width != nil {
		add(schema.CatalogAsset.Width, *patch.Width)
	}
	if patch.Height != nil {
		add(schema.CatalogAsset.Height, *patch.Height)
	}
	if patch.Visibility != nil {
		add(schema.CatalogAsset.Visibility, string(*patch.Visibility))
	}

	return sets, args
}

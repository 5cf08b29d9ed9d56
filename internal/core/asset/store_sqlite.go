package asset

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/atelier/internal/delivery"
	"github.com/taibuivan/atelier/internal/platform/database/schema"
	"github.com/taibuivan/atelier/internal/platform/dberr"
	"github.com/taibuivan/atelier/internal/platform/sqlite"
)

// SQLiteRepository stores the catalog in the embedded database. Tags and
// custom metadata are JSON text, timestamps are RFC 3339 text.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func sqlitePlaceholder(int) string { return "?" }

func scanSQLiteAsset(row rowScanner) (*Asset, error) {
	a := &Asset{}
	var (
		kind, value, tags, metadata string
		createdAt, updatedAt        string
		width, height               sql.NullInt64
		deletedAt                   sql.NullString
	)

	err := row.Scan(
		&a.ID, &kind, &value, &a.DisplayName, &a.Category, &tags, &metadata,
		&width, &height, &a.Visibility, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Source = delivery.NewLocator(delivery.LocatorKind(kind), value)
	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if err := json.Unmarshal([]byte(metadata), &a.CustomMetadata); err != nil {
		return nil, fmt.Errorf("decode custom metadata: %w", err)
	}
	if width.Valid {
		w := int(width.Int64)
		a.Width = &w
	}
	if height.Valid {
		h := int(height.Int64)
		a.Height = &h
	}
	if a.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = sqlite.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	if a.DeletedAt, err = sqlite.NullableTime(deletedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// encodeJSON renders list and map columns as JSON text.
func encodeJSON(v any) any {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(encoded)
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func (repository *SQLiteRepository) CreateAsset(context context.Context, a *Asset) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`, schema.CatalogAsset.Table, assetColumns)

	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	metadata := a.CustomMetadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	_, err := repository.db.ExecContext(context, query,
		a.ID, string(a.Source.Kind()), a.Source.Value(), a.DisplayName, a.Category,
		encodeJSON(tags), encodeJSON(metadata), nullableInt(a.Width), nullableInt(a.Height),
		string(a.Visibility), sqlite.FormatTime(a.CreatedAt), sqlite.FormatTime(a.UpdatedAt),
	)
	return dberr.Wrap(err, "create_asset")
}

func (repository *SQLiteRepository) GetAsset(context context.Context, id string) (*Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s IS NULL`,
		assetColumns, schema.CatalogAsset.Table, schema.CatalogAsset.ID, schema.CatalogAsset.DeletedAt,
	)

	a, err := scanSQLiteAsset(repository.db.QueryRowContext(context, query, id))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dberr.Wrap(err, "get_asset")
	}
	return a, nil
}

func (repository *SQLiteRepository) LookupAsset(context context.Context, id string) (*Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?`, assetColumns, schema.CatalogAsset.Table, schema.CatalogAsset.ID)

	a, err := scanSQLiteAsset(repository.db.QueryRowContext(context, query, id))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dberr.Wrap(err, "lookup_asset")
	}
	return a, nil
}

func (repository *SQLiteRepository) ListAssets(context context.Context, f Filter, limit, offset int) ([]*Asset, int, error) {
	where, args := listConditions(f, sqlitePlaceholder)

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, schema.CatalogAsset.Table, where)
	if err := repository.db.QueryRowContext(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_assets")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s DESC, %s DESC`,
		assetColumns, schema.CatalogAsset.Table, where,
		schema.CatalogAsset.CreatedAt, schema.CatalogAsset.ID,
	)
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, max(offset, 0))
	}

	rows, err := repository.db.QueryContext(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_assets")
	}
	defer rows.Close()

	assets := []*Asset{}
	for rows.Next() {
		a, err := scanSQLiteAsset(rows)
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

func (repository *SQLiteRepository) UpdateAsset(context context.Context, id string, patch Patch, updatedAt time.Time) (*Asset, error) {
	sets, args := patchAssignments(patch, sqlitePlaceholder, encodeJSON)
	sets = append(sets, schema.CatalogAsset.UpdatedAt+" = ?")
	args = append(args, sqlite.FormatTime(updatedAt), id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = ? AND %s IS NULL RETURNING %s`,
		schema.CatalogAsset.Table, strings.Join(sets, ", "),
		schema.CatalogAsset.ID, schema.CatalogAsset.DeletedAt, assetColumns,
	)

	a, err := scanSQLiteAsset(repository.db.QueryRowContext(context, query, args...))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dberr.Wrap(err, "update_asset")
	}
	return a, nil
}

func (repository *SQLiteRepository) SoftDeleteAsset(context context.Context, id string, deletedAt time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = ?, %s = ? WHERE %s = ? AND %s IS NULL`,
		schema.CatalogAsset.Table, schema.CatalogAsset.DeletedAt, schema.CatalogAsset.UpdatedAt,
		schema.CatalogAsset.ID, schema.CatalogAsset.DeletedAt,
	)

	stamp := sqlite.FormatTime(deletedAt)
	result, err := repository.db.ExecContext(context, query, stamp, stamp, id)
	if err != nil {
		return dberr.Wrap(err, "soft_delete_asset")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return dberr.Wrap(err, "soft_delete_asset")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (repository *SQLiteRepository) HardDeleteAsset(context context.Context, id string) (*Asset, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ? RETURNING %s`,
		schema.CatalogAsset.Table, schema.CatalogAsset.ID, assetColumns,
	)

	a, err := scanSQLiteAsset(repository.db.QueryRowContext(context, query, id))
	if dberr.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dberr.Wrap(err, "hard_delete_asset")
	}
	return a, nil
}

func (repository *SQLiteRepository) Ping(context context.Context) error {
	return sqlite.Ping(context, repository.db)
}

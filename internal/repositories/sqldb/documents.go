package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blxryer/haste-server/internal/logging"
	"github.com/blxryer/haste-server/internal/repositories"

	"github.com/huandu/go-sqlbuilder"
)

// DocumentsTable keeps the table name of existing deployments.
const DocumentsTable = "pastebin"

type sqlDocument struct {
	key        string
	value      string
	expiration sql.NullInt64
}

func (d *sqlDocument) Map() *repositories.Document {
	var expiration *int64
	if d.expiration.Valid {
		expiration = &d.expiration.Int64
	}

	return repositories.NewDocument(d.key, d.value, expiration)
}

type DocumentRepository struct {
	db     *sql.DB
	flavor sqlbuilder.Flavor
}

func NewDocumentRepository(db *sql.DB, flavor sqlbuilder.Flavor) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		flavor: flavor,
	}
}

// keyColumn is quoted, key is a reserved word in MySQL.
func (r *DocumentRepository) keyColumn() string {
	return r.flavor.Quote("key")
}

func (r *DocumentRepository) selectQuery(filter *repositories.DocumentFilter) *sqlbuilder.SelectBuilder {
	s := sqlbuilder.Select(
		r.keyColumn(),
		"value",
		"expiration",
	).From(DocumentsTable)

	if filter.HasKey() {
		s.Where(s.Equal(r.keyColumn(), filter.GetKey()))
	}

	if filter.HasLiveAt() {
		s.Where(s.Or(
			s.IsNull("expiration"),
			s.GreaterThan("expiration", filter.GetLiveAt()),
		))
	}

	return s
}

func (r *DocumentRepository) First(ctx context.Context, filter *repositories.DocumentFilter) (*repositories.Document, error) {
	s := r.selectQuery(filter)
	s.Limit(1)

	query, args := s.BuildWithFlavor(r.flavor)
	logging.Logger.Debugf("query: %s, args: %+v", query, args)
	row := r.db.QueryRowContext(ctx, query, args...)

	var document sqlDocument
	err := row.Scan(&document.key, &document.value, &document.expiration)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("scanning row: %w", err)
	}

	return document.Map(), nil
}

func (r *DocumentRepository) upsertQuery(document *repositories.Document) (string, []any) {
	var expiration sql.NullInt64
	if document.HasExpiration() {
		expiration = sql.NullInt64{Int64: *document.GetExpiration(), Valid: true}
	}

	s := sqlbuilder.InsertInto(DocumentsTable).
		Cols(
			r.keyColumn(),
			"value",
			"expiration",
		).
		Values(
			document.GetKey(),
			document.GetValue(),
			expiration,
		)

	switch r.flavor {
	case sqlbuilder.PostgreSQL:
		s.SQL(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET value = EXCLUDED.value, expiration = EXCLUDED.expiration", r.keyColumn()))

	default:
		s.SQL("ON DUPLICATE KEY UPDATE value = VALUES(value), expiration = VALUES(expiration)")
	}

	return s.BuildWithFlavor(r.flavor)
}

func (r *DocumentRepository) Upsert(ctx context.Context, document *repositories.Document) error {
	query, args := r.upsertQuery(document)
	logging.Logger.Debugf("query: %s, args: %+v", query, args)
	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}

	return nil
}

func (r *DocumentRepository) updateExpirationQuery(key string, expiration int64) (string, []any) {
	s := sqlbuilder.Update(DocumentsTable)
	s.Set(s.Assign("expiration", expiration))
	s.Where(s.Equal(r.keyColumn(), key))

	return s.BuildWithFlavor(r.flavor)
}

func (r *DocumentRepository) UpdateExpiration(ctx context.Context, key string, expiration int64) (int64, error) {
	query, args := r.updateExpirationQuery(key, expiration)
	logging.Logger.Debugf("query: %s, args: %+v", query, args)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("executing query: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}

	return affected, nil
}

func (r *DocumentRepository) deleteExpiredQuery(now int64) (string, []any) {
	s := sqlbuilder.DeleteFrom(DocumentsTable)
	s.Where(
		s.IsNotNull("expiration"),
		s.LessEqualThan("expiration", now),
	)

	return s.BuildWithFlavor(r.flavor)
}

func (r *DocumentRepository) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	query, args := r.deleteExpiredQuery(now)
	logging.Logger.Debugf("query: %s, args: %+v", query, args)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("executing query: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}

	return affected, nil
}

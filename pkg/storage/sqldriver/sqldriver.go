// Package sqldriver implements storage.Driver on top of database/sql. The
// dialect-specific drivers (sqlite, postgres) open the connection and supply
// their schema; queries are built with ent's SQL builder so placeholders and
// quoting follow the dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/burnes-center/fair/pkg/relay"
	"github.com/burnes-center/fair/pkg/storage"
)

// Table is the relay record table name.
const Table = "relays"

var columns = []string{
	"id",
	"endpoint",
	"user_id",
	"session_id",
	"state",
	"error",
	"bytes_in",
	"bytes_out",
	"chunks",
	"markers",
	"malformed",
	"meta",
	"started_at",
	"completed_at",
}

// Driver provides relay record storage for any database/sql connection.
type Driver struct {
	DB      *sql.DB
	Dialect string
}

// New wraps db and applies the schema statements in order.
func New(ctx context.Context, db *sql.DB, dialect string, schema []string) (*Driver, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Driver{DB: db, Dialect: dialect}, nil
}

// Put stores a record.
func (d *Driver) Put(ctx context.Context, rec *storage.Record) error {
	if rec == nil {
		return errors.New("cannot store nil record")
	}

	var meta any
	if rec.Meta != nil {
		b, err := json.Marshal(rec.Meta)
		if err != nil {
			return fmt.Errorf("marshaling meta: %w", err)
		}
		meta = string(b)
	}

	query, args := entsql.Dialect(d.Dialect).
		Insert(Table).
		Columns(columns...).
		Values(
			rec.ID,
			rec.Endpoint,
			rec.UserID,
			rec.SessionID,
			rec.State,
			rec.Error,
			rec.BytesIn,
			rec.BytesOut,
			rec.Chunks,
			rec.Markers,
			rec.Malformed,
			meta,
			rec.StartedAt.UTC(),
			rec.CompletedAt.UTC(),
		).
		Query()

	if _, err := d.DB.ExecContext(ctx, query, args...); err != nil {
		if d.exists(ctx, rec.ID) {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateRecord, rec.ID)
		}
		return fmt.Errorf("inserting relay record: %w", err)
	}

	return nil
}

// Get retrieves a record by its relay id.
func (d *Driver) Get(ctx context.Context, id string) (*storage.Record, error) {
	b := entsql.Dialect(d.Dialect)
	t := b.Table(Table)
	query, args := b.Select(columns...).
		From(t).
		Where(entsql.EQ(t.C("id"), id)).
		Query()

	recs, err := d.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, storage.NotFoundError{ID: id}
	}

	return recs[0], nil
}

// List returns the matching records, newest first.
func (d *Driver) List(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	b := entsql.Dialect(d.Dialect)
	t := b.Table(Table)
	sel := b.Select(columns...).From(t)

	if filter.SessionID != "" {
		sel.Where(entsql.EQ(t.C("session_id"), filter.SessionID))
	}
	if filter.Endpoint != "" {
		sel.Where(entsql.EQ(t.C("endpoint"), filter.Endpoint))
	}

	sel.OrderBy(entsql.Desc(t.C("started_at")), entsql.Desc(t.C("id")))
	if filter.Limit > 0 {
		sel.Limit(filter.Limit)
	}

	query, args := sel.Query()
	return d.query(ctx, query, args)
}

// Close closes the underlying connection.
func (d *Driver) Close() error {
	return d.DB.Close()
}

func (d *Driver) exists(ctx context.Context, id string) bool {
	_, err := d.Get(ctx, id)
	return err == nil
}

func (d *Driver) query(ctx context.Context, query string, args []any) ([]*storage.Record, error) {
	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relay records: %w", err)
	}
	defer rows.Close()

	var recs []*storage.Record
	for rows.Next() {
		rec := &storage.Record{}
		var meta sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.Endpoint,
			&rec.UserID,
			&rec.SessionID,
			&rec.State,
			&rec.Error,
			&rec.BytesIn,
			&rec.BytesOut,
			&rec.Chunks,
			&rec.Markers,
			&rec.Malformed,
			&meta,
			&rec.StartedAt,
			&rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning relay record: %w", err)
		}

		if meta.Valid && meta.String != "" {
			rec.Meta = &relay.Meta{}
			if err := json.Unmarshal([]byte(meta.String), rec.Meta); err != nil {
				return nil, fmt.Errorf("decoding meta for %s: %w", rec.ID, err)
			}
		}

		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relay records: %w", err)
	}

	return recs, nil
}

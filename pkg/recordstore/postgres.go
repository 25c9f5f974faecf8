package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	partition_key TEXT NOT NULL,
	id TEXT NOT NULL,
	body JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, partition_key, id)
);
CREATE INDEX IF NOT EXISTS records_collection_idx ON records (collection)`

// PostgresStore keeps every collection in a single JSONB table keyed by
// (collection, partition_key, id).
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an sqlx handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the records table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure records schema: %w", err)
	}
	return nil
}

// Get decodes the record at the address into dest.
func (s *PostgresStore) Get(ctx context.Context, collection, id, partitionKey string, dest interface{}) error {
	var body string
	query := `SELECT body FROM records WHERE collection = $1 AND partition_key = $2 AND id = $3`
	if err := s.db.GetContext(ctx, &body, query, collection, partitionKey, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s record: %w", collection, err)
	}
	if err := json.Unmarshal([]byte(body), dest); err != nil {
		return fmt.Errorf("decode %s record: %w", collection, err)
	}
	return nil
}

// Query returns every record in the collection matching q.
func (s *PostgresStore) Query(ctx context.Context, collection string, q Query, dest interface{}) error {
	query, args, err := buildPostgresQuery(collection, q)
	if err != nil {
		return err
	}
	var bodies []string
	if err := s.db.SelectContext(ctx, &bodies, query, args...); err != nil {
		return fmt.Errorf("query %s records: %w", collection, err)
	}
	docs := make([][]byte, len(bodies))
	for i, body := range bodies {
		docs[i] = []byte(body)
	}
	return decodeList(docs, dest)
}

// Create inserts doc; a taken address yields ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, collection, id, partitionKey string, doc interface{}) error {
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	query := `INSERT INTO records (collection, partition_key, id, body)
VALUES ($1, $2, $3, $4)
ON CONFLICT (collection, partition_key, id) DO NOTHING`
	res, err := s.db.ExecContext(ctx, query, collection, partitionKey, id, string(raw))
	if err != nil {
		return fmt.Errorf("create %s record: %w", collection, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create %s record: %w", collection, err)
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

// Replace overwrites the body of an existing record.
func (s *PostgresStore) Replace(ctx context.Context, collection, id, partitionKey string, doc interface{}) error {
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	query := `UPDATE records SET body = $4, updated_at = now()
WHERE collection = $1 AND partition_key = $2 AND id = $3`
	res, err := s.db.ExecContext(ctx, query, collection, partitionKey, id, string(raw))
	if err != nil {
		return fmt.Errorf("replace %s record: %w", collection, err)
	}
	return requireAffected(res, "replace", collection)
}

// Delete removes a record.
func (s *PostgresStore) Delete(ctx context.Context, collection, id, partitionKey string) error {
	query := `DELETE FROM records WHERE collection = $1 AND partition_key = $2 AND id = $3`
	res, err := s.db.ExecContext(ctx, query, collection, partitionKey, id)
	if err != nil {
		return fmt.Errorf("delete %s record: %w", collection, err)
	}
	return requireAffected(res, "delete", collection)
}

func requireAffected(res sql.Result, op, collection string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s record: %w", op, collection, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func buildPostgresQuery(collection string, q Query) (string, []interface{}, error) {
	if err := q.validate(); err != nil {
		return "", nil, err
	}
	where := []string{"collection = $1"}
	args := []interface{}{collection}
	for _, cond := range q.Conditions {
		value, err := scalar(cond.Value)
		if err != nil {
			return "", nil, err
		}
		column := fmt.Sprintf("body->>'%s'", cond.Field)
		switch value.(type) {
		case float64:
			column = fmt.Sprintf("(%s)::numeric", column)
		case bool:
			column = fmt.Sprintf("(%s)::boolean", column)
		}
		op := "="
		switch cond.Op {
		case OpGte:
			op = ">="
		case OpLte:
			op = "<="
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}

	order := "partition_key, id"
	if q.OrderBy != "" {
		direction := "ASC"
		if q.Descending {
			direction = "DESC"
		}
		order = fmt.Sprintf("body->>'%s' %s, partition_key, id", q.OrderBy, direction)
	}

	query := fmt.Sprintf("SELECT body FROM records WHERE %s ORDER BY %s", strings.Join(where, " AND "), order)
	return query, args, nil
}

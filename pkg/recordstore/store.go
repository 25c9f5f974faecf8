// Package recordstore defines the document store contract used by the billing
// core together with in-memory, PostgreSQL and MongoDB adapters.
//
// Records are JSON documents addressed by (collection, id, partition key).
// Create is conditional: it fails with ErrConflict when the address is taken,
// which is what the invoice generator relies on for uniqueness.
package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound is returned when no record exists at the address.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by Create when the address is already taken.
	ErrConflict = errors.New("record already exists")
)

// Operator is a comparison used in query conditions.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGte Operator = "gte"
	OpLte Operator = "lte"
)

// Condition compares a top-level document field against a scalar value.
type Condition struct {
	Field string
	Op    Operator
	Value interface{}
}

// Query is a conjunction of conditions with optional ordering.
type Query struct {
	Conditions []Condition
	OrderBy    string
	Descending bool
}

// Where builds a Condition.
func Where(field string, op Operator, value interface{}) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

// Store is the record store contract.
type Store interface {
	Get(ctx context.Context, collection, id, partitionKey string, dest interface{}) error
	Query(ctx context.Context, collection string, q Query, dest interface{}) error
	Create(ctx context.Context, collection, id, partitionKey string, doc interface{}) error
	Replace(ctx context.Context, collection, id, partitionKey string, doc interface{}) error
	Delete(ctx context.Context, collection, id, partitionKey string) error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (q Query) validate() error {
	for _, cond := range q.Conditions {
		if !fieldPattern.MatchString(cond.Field) {
			return fmt.Errorf("invalid query field %q", cond.Field)
		}
		switch cond.Op {
		case OpEq, OpGte, OpLte:
		default:
			return fmt.Errorf("unsupported operator %q", cond.Op)
		}
	}
	if q.OrderBy != "" && !fieldPattern.MatchString(q.OrderBy) {
		return fmt.Errorf("invalid order field %q", q.OrderBy)
	}
	return nil
}

// scalar normalises a condition value to its JSON representation so that
// time.Time, decimal.Decimal and named string types compare the same way the
// stored documents do.
func scalar(value interface{}) (interface{}, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode condition value: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode condition value: %w", err)
	}
	switch out.(type) {
	case string, float64, bool:
		return out, nil
	default:
		return nil, fmt.Errorf("condition value %v is not a scalar", value)
	}
}

func encode(doc interface{}) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("record must encode to a JSON object")
	}
	return raw, nil
}

func decodeOne(doc []byte, dest interface{}) error {
	if err := json.Unmarshal(doc, dest); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

// decodeList unmarshals a set of JSON documents into a slice pointer.
func decodeList(docs [][]byte, dest interface{}) error {
	buf := make([]byte, 0, 2+len(docs)*64)
	buf = append(buf, '[')
	for i, doc := range docs {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, doc...)
	}
	buf = append(buf, ']')
	if err := json.Unmarshal(buf, dest); err != nil {
		return fmt.Errorf("decode records: %w", err)
	}
	return nil
}

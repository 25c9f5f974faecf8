package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type recordKey struct {
	partition string
	id        string
}

// MemoryStore keeps records in process. Used by tests and the memory backend.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[recordKey][]byte
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[recordKey][]byte)}
}

// Get decodes the record at the address into dest.
func (s *MemoryStore) Get(_ context.Context, collection, id, partitionKey string, dest interface{}) error {
	s.mu.RLock()
	raw, ok := s.collections[collection][recordKey{partition: partitionKey, id: id}]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

type memoryMatch struct {
	key   recordKey
	raw   []byte
	order interface{}
}

// Query returns all records matching q.
func (s *MemoryStore) Query(_ context.Context, collection string, q Query, dest interface{}) error {
	if err := q.validate(); err != nil {
		return err
	}
	values := make([]interface{}, len(q.Conditions))
	for i, cond := range q.Conditions {
		v, err := scalar(cond.Value)
		if err != nil {
			return err
		}
		values[i] = v
	}

	s.mu.RLock()
	matches := make([]memoryMatch, 0)
	for key, raw := range s.collections[collection] {
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			s.mu.RUnlock()
			return fmt.Errorf("decode record %s: %w", key.id, err)
		}
		if !matchAll(fields, q.Conditions, values) {
			continue
		}
		matches = append(matches, memoryMatch{key: key, raw: raw, order: fields[q.OrderBy]})
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		if q.OrderBy != "" {
			if c := compareScalars(matches[i].order, matches[j].order); c != 0 {
				if q.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		if matches[i].key.partition != matches[j].key.partition {
			return matches[i].key.partition < matches[j].key.partition
		}
		return matches[i].key.id < matches[j].key.id
	})

	docs := make([][]byte, len(matches))
	for i, m := range matches {
		docs[i] = m.raw
	}
	return decodeList(docs, dest)
}

// Create stores doc unless the address is taken.
func (s *MemoryStore) Create(_ context.Context, collection, id, partitionKey string, doc interface{}) error {
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.collections[collection]
	if !ok {
		records = make(map[recordKey][]byte)
		s.collections[collection] = records
	}
	key := recordKey{partition: partitionKey, id: id}
	if _, exists := records[key]; exists {
		return ErrConflict
	}
	records[key] = raw
	return nil
}

// Replace overwrites an existing record.
func (s *MemoryStore) Replace(_ context.Context, collection, id, partitionKey string, doc interface{}) error {
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{partition: partitionKey, id: id}
	if _, exists := s.collections[collection][key]; !exists {
		return ErrNotFound
	}
	s.collections[collection][key] = raw
	return nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(_ context.Context, collection, id, partitionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{partition: partitionKey, id: id}
	if _, exists := s.collections[collection][key]; !exists {
		return ErrNotFound
	}
	delete(s.collections[collection], key)
	return nil
}

// Count returns the number of records in a collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func matchAll(fields map[string]interface{}, conds []Condition, values []interface{}) bool {
	for i, cond := range conds {
		got, ok := fields[cond.Field]
		if !ok || got == nil {
			return false
		}
		c := compareScalars(got, values[i])
		if c == incomparable {
			return false
		}
		switch cond.Op {
		case OpEq:
			if c != 0 {
				return false
			}
		case OpGte:
			if c < 0 {
				return false
			}
		case OpLte:
			if c > 0 {
				return false
			}
		}
	}
	return true
}

const incomparable = 2

// compareScalars orders JSON scalars of the same kind. Missing values sort first.
func compareScalars(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	return incomparable
}

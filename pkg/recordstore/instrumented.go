package recordstore

import (
	"context"
	"time"
)

// ObserveFunc receives the duration of a store operation.
type ObserveFunc func(operation, collection string, duration time.Duration)

type instrumented struct {
	next    Store
	observe ObserveFunc
}

// Instrument wraps store so every call is reported to observe.
func Instrument(store Store, observe ObserveFunc) Store {
	if observe == nil {
		return store
	}
	return &instrumented{next: store, observe: observe}
}

func (s *instrumented) track(operation, collection string) func() {
	start := time.Now()
	return func() { s.observe(operation, collection, time.Since(start)) }
}

func (s *instrumented) Get(ctx context.Context, collection, id, partitionKey string, dest interface{}) error {
	defer s.track("get", collection)()
	return s.next.Get(ctx, collection, id, partitionKey, dest)
}

func (s *instrumented) Query(ctx context.Context, collection string, q Query, dest interface{}) error {
	defer s.track("query", collection)()
	return s.next.Query(ctx, collection, q, dest)
}

func (s *instrumented) Create(ctx context.Context, collection, id, partitionKey string, doc interface{}) error {
	defer s.track("create", collection)()
	return s.next.Create(ctx, collection, id, partitionKey, doc)
}

func (s *instrumented) Replace(ctx context.Context, collection, id, partitionKey string, doc interface{}) error {
	defer s.track("replace", collection)()
	return s.next.Replace(ctx, collection, id, partitionKey, doc)
}

func (s *instrumented) Delete(ctx context.Context, collection, id, partitionKey string) error {
	defer s.track("delete", collection)()
	return s.next.Delete(ctx, collection, id, partitionKey)
}

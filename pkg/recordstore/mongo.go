package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	mongoIDField        = "_id"
	mongoPartitionField = "_pk"
)

// MongoStore maps each collection onto a MongoDB collection. Document fields
// are stored at the top level next to the compound _id and the _pk field.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects and pings the server.
func NewMongoStore(uri, database string, timeout time.Duration) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes creates secondary indexes for frequently filtered fields.
func (s *MongoStore) EnsureIndexes(ctx context.Context, collection string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(fields))
	for _, field := range fields {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}})
	}
	if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create %s indexes: %w", collection, err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Get decodes the record at the address into dest.
func (s *MongoStore) Get(ctx context.Context, collection, id, partitionKey string, dest interface{}) error {
	raw, err := s.db.Collection(collection).FindOne(ctx, bson.D{{Key: mongoIDField, Value: mongoKey(partitionKey, id)}}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("find %s record: %w", collection, err)
	}
	doc, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return fmt.Errorf("decode %s record: %w", collection, err)
	}
	return decodeOne(doc, dest)
}

// Query returns all records matching q.
func (s *MongoStore) Query(ctx context.Context, collection string, q Query, dest interface{}) error {
	filter, err := buildMongoFilter(q)
	if err != nil {
		return err
	}
	findOpts := options.Find().SetSort(mongoSort(q))
	cursor, err := s.db.Collection(collection).Find(ctx, filter, findOpts)
	if err != nil {
		return fmt.Errorf("find %s records: %w", collection, err)
	}
	defer cursor.Close(ctx) //nolint:errcheck

	docs := make([][]byte, 0)
	for cursor.Next(ctx) {
		doc, err := bson.MarshalExtJSON(cursor.Current, false, false)
		if err != nil {
			return fmt.Errorf("decode %s record: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("iterate %s records: %w", collection, err)
	}
	return decodeList(docs, dest)
}

// Create inserts doc; a duplicate _id yields ErrConflict.
func (s *MongoStore) Create(ctx context.Context, collection, id, partitionKey string, doc interface{}) error {
	document, err := toMongoDocument(id, partitionKey, doc)
	if err != nil {
		return err
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, document); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert %s record: %w", collection, err)
	}
	return nil
}

// Replace overwrites an existing record.
func (s *MongoStore) Replace(ctx context.Context, collection, id, partitionKey string, doc interface{}) error {
	document, err := toMongoDocument(id, partitionKey, doc)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(collection).ReplaceOne(ctx, bson.D{{Key: mongoIDField, Value: mongoKey(partitionKey, id)}}, document)
	if err != nil {
		return fmt.Errorf("replace %s record: %w", collection, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a record.
func (s *MongoStore) Delete(ctx context.Context, collection, id, partitionKey string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.D{{Key: mongoIDField, Value: mongoKey(partitionKey, id)}})
	if err != nil {
		return fmt.Errorf("delete %s record: %w", collection, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mongoKey(partitionKey, id string) string {
	return partitionKey + "|" + id
}

func toMongoDocument(id, partitionKey string, doc interface{}) (bson.D, error) {
	raw, err := encode(doc)
	if err != nil {
		return nil, err
	}
	var fields bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &fields); err != nil {
		return nil, fmt.Errorf("convert record to bson: %w", err)
	}
	document := make(bson.D, 0, len(fields)+2)
	document = append(document,
		bson.E{Key: mongoIDField, Value: mongoKey(partitionKey, id)},
		bson.E{Key: mongoPartitionField, Value: partitionKey},
	)
	for _, field := range fields {
		if field.Key == mongoIDField || field.Key == mongoPartitionField {
			continue
		}
		document = append(document, field)
	}
	return document, nil
}

func buildMongoFilter(q Query) (bson.D, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	filter := bson.D{}
	positions := make(map[string]int)
	for _, cond := range q.Conditions {
		value, err := scalar(cond.Value)
		if err != nil {
			return nil, err
		}
		op := "$eq"
		switch cond.Op {
		case OpGte:
			op = "$gte"
		case OpLte:
			op = "$lte"
		}
		pos, ok := positions[cond.Field]
		if !ok {
			positions[cond.Field] = len(filter)
			filter = append(filter, bson.E{Key: cond.Field, Value: bson.D{{Key: op, Value: value}}})
			continue
		}
		ops := filter[pos].Value.(bson.D)
		filter[pos].Value = append(ops, bson.E{Key: op, Value: value})
	}
	return filter, nil
}

func mongoSort(q Query) bson.D {
	sort := bson.D{}
	if q.OrderBy != "" {
		direction := 1
		if q.Descending {
			direction = -1
		}
		sort = append(sort, bson.E{Key: q.OrderBy, Value: direction})
	}
	return append(sort, bson.E{Key: mongoIDField, Value: 1})
}

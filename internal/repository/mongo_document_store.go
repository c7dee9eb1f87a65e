package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"profile-store/internal/domain"
)

const mongoDisconnectTimeout = 5 * time.Second

// MongoDocumentStore implementa DocumentStore sobre MongoDB.
// No mantiene un cliente compartido: conecta y desconecta en cada llamada.
type MongoDocumentStore struct {
	logger         *zap.Logger
	uri            string
	database       string
	connectTimeout time.Duration
}

func NewMongoDocumentStore(logger *zap.Logger, uri, database string, connectTimeout time.Duration) *MongoDocumentStore {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	return &MongoDocumentStore{
		logger:         logger,
		uri:            uri,
		database:       database,
		connectTimeout: connectTimeout,
	}
}

func (s *MongoDocumentStore) UpsertByKey(ctx context.Context, collection, keyField, keyValue string, fields domain.Profile) error {
	return s.withDatabase(ctx, func(db *mongo.Database) error {
		filter, update := mongoUpsertDocs(keyField, keyValue, fields)
		res, err := db.Collection(collection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("mongo upsert: %w", err)
		}
		s.logger.Info("mongo upsert",
			zap.String("collection", collection),
			zap.Int64("matched", res.MatchedCount),
			zap.Int64("modified", res.ModifiedCount),
			zap.Int64("upserted", res.UpsertedCount),
		)
		return nil
	})
}

func (s *MongoDocumentStore) FindOne(ctx context.Context, collection, keyField, keyValue string) (domain.Profile, error) {
	var doc bson.M
	err := s.withDatabase(ctx, func(db *mongo.Database) error {
		err := db.Collection(collection).FindOne(ctx, bson.M{keyField: keyValue}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("mongo find: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return domain.Profile(normalizeBSONDocument(doc)), nil
}

// withDatabase abre un cliente, ejecuta fn y desconecta en todos los caminos de salida.
func (s *MongoDocumentStore) withDatabase(ctx context.Context, fn func(db *mongo.Database) error) error {
	opts := options.Client().
		ApplyURI(s.uri).
		SetConnectTimeout(s.connectTimeout).
		SetServerSelectionTimeout(s.connectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			s.logger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()

	return fn(client.Database(s.database))
}

func mongoUpsertDocs(keyField, keyValue string, fields domain.Profile) (filter, update bson.M) {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	set[keyField] = keyValue
	return bson.M{keyField: keyValue}, bson.M{"$set": set}
}

// normalizeBSONDocument convierte tipos propios de bson a valores JSON planos.
func normalizeBSONDocument(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = normalizeBSONValue(v)
	}
	return out
}

func normalizeBSONValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		return normalizeBSONDocument(val)
	case map[string]any:
		return normalizeBSONDocument(bson.M(val))
	case bson.D:
		m := make(bson.M, len(val))
		for _, e := range val {
			m[e.Key] = e.Value
		}
		return normalizeBSONDocument(m)
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeBSONValue(item)
		}
		return out
	case []any:
		return normalizeBSONValue(bson.A(val))
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return val
	}
}

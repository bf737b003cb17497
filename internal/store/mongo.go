package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

// MongoConfig configures the MongoDB provider.
type MongoConfig struct {
	URI      string
	Database string

	// PingAttempts bounds the startup connectivity check (default: 5).
	PingAttempts uint
	// PingDelay is the wait between ping attempts (default: 2s).
	PingDelay time.Duration
}

// MongoDB stores each collection as a MongoDB collection.
type MongoDB struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// OpenMongo connects to MongoDB and waits until the primary answers a ping.
func OpenMongo(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*MongoDB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PingAttempts == 0 {
		cfg.PingAttempts = 5
	}
	if cfg.PingDelay == 0 {
		cfg.PingDelay = 2 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(30 * time.Second).
		SetServerSelectionTimeout(30 * time.Second).
		SetHeartbeatInterval(10 * time.Second).
		SetMaxConnIdleTime(45 * time.Second).
		SetTimeout(45 * time.Second).
		SetRetryWrites(true).
		SetMaxPoolSize(50).
		SetMinPoolSize(5)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	err = retry.Do(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	},
		retry.Context(ctx),
		retry.Attempts(cfg.PingAttempts),
		retry.Delay(cfg.PingDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("mongo ping failed, retrying",
				zap.Uint("attempt", n+1),
				zap.Uint("max_attempts", cfg.PingAttempts),
				zap.Error(err))
		}),
	)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("mongo store connected", zap.String("database", cfg.Database))
	return &MongoDB{client: client, db: client.Database(cfg.Database), logger: logger}, nil
}

// Provider returns "mongo".
func (m *MongoDB) Provider() string { return "mongo" }

// Ping checks that the primary is reachable.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// EnsureIndexes creates the {userId, date} index on each collection.
func (m *MongoDB) EnsureIndexes(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		_, err := m.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: fieldUserID, Value: 1}, {Key: fieldDate, Value: -1}},
			Options: options.Index().SetName("userId_date"),
		})
		if err != nil {
			return fmt.Errorf("create index on %s: %w", name, err)
		}
	}
	return nil
}

type mongoCollection[T Document] struct {
	coll *mongo.Collection
}

func newMongoCollection[T Document](db *MongoDB, name string) *mongoCollection[T] {
	return &mongoCollection[T]{coll: db.db.Collection(name)}
}

func (c *mongoCollection[T]) Insert(ctx context.Context, doc T) error {
	if doc.DocID() == "" || doc.Owner() == "" {
		return fmt.Errorf("%w: document id and owner are required", ErrInvalidQuery)
	}
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, doc.DocID())
		}
		return fmt.Errorf("insert into %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *mongoCollection[T]) Get(ctx context.Context, q Query) (T, error) {
	var doc T
	if err := q.validate(true); err != nil {
		return doc, err
	}
	err := c.coll.FindOne(ctx, mongoFilter(q)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("get %s/%s: %w", c.coll.Name(), q.ID, err)
	}
	return doc, nil
}

func (c *mongoCollection[T]) Find(ctx context.Context, q Query) ([]T, error) {
	if err := q.validate(false); err != nil {
		return nil, err
	}
	dir := -1
	if q.Order == Oldest {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: fieldDate, Value: dir}, {Key: fieldCreatedAt, Value: dir}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := c.coll.Find(ctx, mongoFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.coll.Name(), err)
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return out, nil
}

func (c *mongoCollection[T]) Update(ctx context.Context, q Query, fields Fields) (T, error) {
	var doc T
	if err := q.validate(true); err != nil {
		return doc, err
	}
	set := bson.M(fields.mutable(now()))
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := c.coll.FindOneAndUpdate(ctx, mongoFilter(q), bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("update %s/%s: %w", c.coll.Name(), q.ID, err)
	}
	return doc, nil
}

func (c *mongoCollection[T]) Delete(ctx context.Context, q Query) error {
	if err := q.validate(true); err != nil {
		return err
	}
	res, err := c.coll.DeleteOne(ctx, mongoFilter(q))
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.coll.Name(), q.ID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *mongoCollection[T]) Count(ctx context.Context, q Query) (int64, error) {
	if err := q.validate(false); err != nil {
		return 0, err
	}
	n, err := c.coll.CountDocuments(ctx, mongoFilter(q))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.coll.Name(), err)
	}
	return n, nil
}

func mongoFilter(q Query) bson.D {
	filter := bson.D{{Key: fieldUserID, Value: q.UserID}}
	if q.ID != "" {
		filter = append(filter, bson.E{Key: fieldID, Value: q.ID})
	}
	if !q.From.IsZero() || !q.To.IsZero() {
		rng := bson.D{}
		if !q.From.IsZero() {
			rng = append(rng, bson.E{Key: "$gte", Value: q.From})
		}
		if !q.To.IsZero() {
			rng = append(rng, bson.E{Key: "$lte", Value: q.To})
		}
		filter = append(filter, bson.E{Key: fieldDate, Value: rng})
	}
	for k, v := range q.Equals {
		filter = append(filter, bson.E{Key: k, Value: v})
	}
	return filter
}

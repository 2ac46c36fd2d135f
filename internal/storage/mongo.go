package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pagesift/pagesift/internal/types"
)

// Collection names used by the Mongo backend.
const (
	crawlCollection  = "crawl_results"
	socialCollection = "social_results"
)

// MongoStore writes crawl results and social exchanges to MongoDB.
type MongoStore struct {
	client  *mongo.Client
	crawls  *mongo.Collection
	socials *mongo.Collection
	logger  *slog.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(uri, database string, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	db := client.Database(database)
	return &MongoStore{
		client:  client,
		crawls:  db.Collection(crawlCollection),
		socials: db.Collection(socialCollection),
		logger:  logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

// SaveCrawl stores the result under a fresh id with its wire-format field
// names intact.
func (s *MongoStore) SaveCrawl(ctx context.Context, result *types.CrawlResult) error {
	payload, err := toDocument(result)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	doc := bson.M{
		"id":         uuid.NewString(),
		"payload":    payload,
		"created_at": time.Now().UTC(),
	}
	if _, err := s.crawls.InsertOne(ctx, doc); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.logger.Debug("crawl result stored",
		"domains", len(result.Results), "pages", result.TotalPagesCrawled)
	return nil
}

// SaveSocial stores one proxied exchange.
func (s *MongoStore) SaveSocial(ctx context.Context, record *types.SocialRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	doc := bson.M{
		"id":           uuid.NewString(),
		"source":       record.Source,
		"request_path": record.RequestPath,
		"params":       rawToAny(record.Params),
		"payload":      rawToAny(record.Payload),
		"created_at":   time.Now().UTC(),
	}
	if _, err := s.socials.InsertOne(ctx, doc); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.logger.Debug("social exchange stored",
		"source", record.Source, "path", record.RequestPath)
	return nil
}

func (s *MongoStore) Close() error {
	s.logger.Info("mongodb storage closing")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// toDocument converts v through JSON so the stored field names match the
// wire format rather than Go struct names.
func toDocument(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// rawToAny decodes raw JSON for structured storage, falling back to the
// original text when it does not parse.
func rawToAny(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

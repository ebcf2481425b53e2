package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"volur/types"
)

const (
	valuationCollection = "valuations"
	PageSize            = 10
)

var ErrNotFound = errors.New("valuation not found")

// ValuationStore persists the latest valuation per ticker and source.
type ValuationStore interface {
	Save(ctx context.Context, valuation types.AnalyzedValuation) error
	Get(ctx context.Context, ticker, source string) (types.AnalyzedValuation, error)
	// List returns one page of stored valuations ordered by ticker. An empty
	// interpretation matches every valuation.
	List(ctx context.Context, pageNumber int, interpretation string) ([]types.AnalyzedValuation, error)
}

type mongoValuationStore struct {
	collection *mongo.Collection
}

func NewMongoValuationStore(ctx context.Context, db *mongo.Database) (ValuationStore, error) {
	collection := db.Collection(valuationCollection)
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ticker", Value: 1}, {Key: "source", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valuation index: %w", err)
	}
	return &mongoValuationStore{collection: collection}, nil
}

func (s *mongoValuationStore) Save(ctx context.Context, valuation types.AnalyzedValuation) error {
	filter := bson.M{"ticker": valuation.Ticker, "source": valuation.Source}

	// the whole document is replaced so fields of an older analysis never linger
	result, err := s.collection.ReplaceOne(ctx, filter, valuation, options.Replace().SetUpsert(true))
	if err != nil {
		zap.L().Error("Error updating valuation",
			zap.String("ticker", valuation.Ticker),
			zap.String("source", valuation.Source),
			zap.Error(err))
		return fmt.Errorf("failed to save valuation: %w", err)
	}
	zap.L().Debug("Saved valuation",
		zap.String("ticker", valuation.Ticker),
		zap.Int64("matched", result.MatchedCount),
		zap.Any("upserted", result.UpsertedID))
	return nil
}

func (s *mongoValuationStore) Get(ctx context.Context, ticker, source string) (types.AnalyzedValuation, error) {
	var valuation types.AnalyzedValuation
	err := s.collection.FindOne(ctx, bson.M{"ticker": ticker, "source": source}).Decode(&valuation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return valuation, ErrNotFound
	}
	if err != nil {
		return valuation, fmt.Errorf("failed to read valuation: %w", err)
	}
	return valuation, nil
}

func (s *mongoValuationStore) List(ctx context.Context, pageNumber int, interpretation string) ([]types.AnalyzedValuation, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	filter := bson.M{}
	if interpretation != "" {
		filter["interpretation"] = interpretation
	}

	findOptions := options.Find()
	findOptions.SetLimit(PageSize)
	findOptions.SetSkip(int64(PageSize * (pageNumber - 1)))
	// Sort by ticker for consistent pagination
	findOptions.SetSort(bson.D{{Key: "ticker", Value: 1}, {Key: "source", Value: 1}})

	cursor, err := s.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch valuations: %w", err)
	}
	defer cursor.Close(ctx)

	valuations := []types.AnalyzedValuation{}
	if err := cursor.All(ctx, &valuations); err != nil {
		return nil, fmt.Errorf("failed to decode valuations: %w", err)
	}
	return valuations, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dechiad1/chesster/internal/adapters"
	analysisdomain "github.com/dechiad1/chesster/internal/domain/analysis"
	"github.com/dechiad1/chesster/internal/errors"
)

const archiveCollection = "analyses"

// AnalysisRecord is one archived game analysis.
type AnalysisRecord struct {
	ID        string                `json:"id" bson:"_id"`
	PGN       string                `json:"pgn" bson:"pgn"`
	Result    analysisdomain.Result `json:"result" bson:"result"`
	CreatedAt time.Time             `json:"created_at" bson:"created_at"`
}

// AnalysisArchive persists completed analyses in MongoDB so clients can
// fetch them again by ID.
type AnalysisArchive struct {
	mongo *adapters.AdapterMongo
	log   *zap.SugaredLogger
}

func NewAnalysisArchive(mongoAdapter *adapters.AdapterMongo, log *zap.SugaredLogger) *AnalysisArchive {
	return &AnalysisArchive{
		mongo: mongoAdapter,
		log:   log,
	}
}

func (a *AnalysisArchive) Save(ctx context.Context, pgn string, res analysisdomain.Result) (string, error) {
	record := AnalysisRecord{
		ID:        uuid.New().String(),
		PGN:       pgn,
		Result:    res,
		CreatedAt: time.Now().UTC(),
	}

	collection := a.mongo.Database.Collection(archiveCollection)
	if _, err := collection.InsertOne(ctx, record); err != nil {
		return "", fmt.Errorf("failed to archive analysis: %w", err)
	}
	return record.ID, nil
}

func (a *AnalysisArchive) GetByID(ctx context.Context, id string) (*AnalysisRecord, error) {
	collection := a.mongo.Database.Collection(archiveCollection)

	var record AnalysisRecord
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, errors.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %s: %w", id, err)
	}
	return &record, nil
}

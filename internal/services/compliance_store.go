package services

import (
	"context"
	"fmt"
	"time"

	"complians/internal/database"
	"complians/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ComplianceStore holds the latest verdict per (workerId, agentType) key.
// Each write replaces the whole record atomically; a unique index on the
// composite key guarantees at most one record per key.
type ComplianceStore struct {
	mongoDB *database.MongoDB
}

// NewComplianceStore creates a compliance store
func NewComplianceStore(mongoDB *database.MongoDB) *ComplianceStore {
	return &ComplianceStore{mongoDB: mongoDB}
}

func (s *ComplianceStore) collection() *mongo.Collection {
	return s.mongoDB.Database().Collection(database.CollectionComplianceRecords)
}

// Upsert overwrites the record for (workerId, agentType) with a fresh verdict
// and returns the record plus the red-flag transition for the aggregator and
// notifier. Concurrent upserts for different agent types never interfere:
// each targets its own composite-key document.
func (s *ComplianceStore) Upsert(ctx context.Context, tenantID, workerID, agentType string, verdict *models.Verdict) (*models.AgentComplianceRecord, *models.RecordChange, error) {
	record := &models.AgentComplianceRecord{
		WorkerID:       workerID,
		TenantID:       tenantID,
		AgentType:      agentType,
		Status:         verdict.Status,
		RiskLevel:      verdict.RiskLevel,
		RedFlag:        verdict.RedFlag,
		Narrative:      verdict.Narrative,
		Source:         verdict.Source,
		LastAssessedAt: time.Now().UTC(),
	}

	filter := bson.M{"workerId": workerID, "agentType": agentType}

	// FindOneAndReplace gives us the previous document in the same atomic
	// operation, which is what the red-flag edge detection needs.
	var previous models.AgentComplianceRecord
	err := s.collection().FindOneAndReplace(ctx, filter, record,
		options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.Before),
	).Decode(&previous)

	change := &models.RecordChange{
		WorkerID:   workerID,
		AgentType:  agentType,
		NewRedFlag: record.RedFlag,
	}

	if err != nil {
		if err != mongo.ErrNoDocuments {
			return nil, nil, fmt.Errorf("failed to upsert compliance record: %w", err)
		}
		// First assessment for this key — no previous flag.
	} else {
		change.PreviousRedFlag = previous.RedFlag
	}

	return record, change, nil
}

// Get returns the record for one (workerId, agentType) key
func (s *ComplianceStore) Get(ctx context.Context, workerID, agentType string) (*models.AgentComplianceRecord, error) {
	var record models.AgentComplianceRecord
	err := s.collection().FindOne(ctx, bson.M{"workerId": workerID, "agentType": agentType}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("compliance record", workerID+"/"+agentType)
		}
		return nil, fmt.Errorf("failed to get compliance record: %w", err)
	}
	return &record, nil
}

// ListByWorker returns every record for a worker, one per assessed agent
func (s *ComplianceStore) ListByWorker(ctx context.Context, workerID string) ([]models.AgentComplianceRecord, error) {
	cursor, err := s.collection().Find(ctx, bson.M{"workerId": workerID},
		options.Find().SetSort(bson.D{{Key: "agentType", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list compliance records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.AgentComplianceRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode compliance records: %w", err)
	}
	return records, nil
}

// DeleteByWorker removes all records for a worker. Records are otherwise
// never deleted — they live and die with the worker.
func (s *ComplianceStore) DeleteByWorker(ctx context.Context, workerID string) (int64, error) {
	result, err := s.collection().DeleteMany(ctx, bson.M{"workerId": workerID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete compliance records: %w", err)
	}
	return result.DeletedCount, nil
}

// EnsureIndexes creates the composite-key and tenant indexes
func (s *ComplianceStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// The invariant: at most one record per (workerId, agentType)
		{
			Keys: bson.D{
				{Key: "workerId", Value: 1},
				{Key: "agentType", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "lastAssessedAt", Value: -1},
			},
		},
	}

	_, err := s.collection().Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create compliance record indexes: %w", err)
	}
	return nil
}

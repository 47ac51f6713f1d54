package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"complians/internal/database"
	"complians/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RemediationService manages operator-created remediation actions against
// breached (worker, agent) records. The status machine is forward-only and
// actions are never auto-deleted.
type RemediationService struct {
	mongoDB *database.MongoDB
	store   *ComplianceStore
}

// NewRemediationService creates a remediation service
func NewRemediationService(mongoDB *database.MongoDB, store *ComplianceStore) *RemediationService {
	return &RemediationService{mongoDB: mongoDB, store: store}
}

func (s *RemediationService) collection() *mongo.Collection {
	return s.mongoDB.Database().Collection(database.CollectionRemediationActions)
}

// Create opens a remediation action. The referenced (workerId, agentType)
// must already have a compliance record — actions remediate real verdicts.
func (s *RemediationService) Create(ctx context.Context, tenantID, userID string, req *models.CreateActionRequest) (*models.RemediationAction, error) {
	if strings.TrimSpace(req.ActionSummary) == "" {
		return nil, models.NewValidationError("actionSummary", "required field missing")
	}
	if req.WorkerID == "" {
		return nil, models.NewValidationError("workerId", "required field missing")
	}

	record, err := s.store.Get(ctx, req.WorkerID, req.AgentType)
	if err != nil {
		return nil, err
	}
	if record.TenantID != tenantID {
		return nil, models.NewNotFoundError("compliance record", req.WorkerID+"/"+req.AgentType)
	}

	now := time.Now().UTC()
	action := &models.RemediationAction{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		CreatedBy:     userID,
		WorkerID:      req.WorkerID,
		AgentType:     req.AgentType,
		ActionSummary: strings.TrimSpace(req.ActionSummary),
		DetailedNotes: req.DetailedNotes,
		Status:        models.ActionOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := s.collection().InsertOne(ctx, action); err != nil {
		return nil, fmt.Errorf("failed to create remediation action: %w", err)
	}

	return action, nil
}

// Get returns one action, tenant-scoped
func (s *RemediationService) Get(ctx context.Context, tenantID, actionID string) (*models.RemediationAction, error) {
	var action models.RemediationAction
	err := s.collection().FindOne(ctx, bson.M{"_id": actionID, "tenantId": tenantID}).Decode(&action)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("remediation action", actionID)
		}
		return nil, fmt.Errorf("failed to get remediation action: %w", err)
	}
	return &action, nil
}

// List returns the tenant's actions, newest first, optionally filtered by
// worker
func (s *RemediationService) List(ctx context.Context, tenantID, workerID string) ([]models.RemediationAction, error) {
	filter := bson.M{"tenantId": tenantID}
	if workerID != "" {
		filter["workerId"] = workerID
	}

	cursor, err := s.collection().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list remediation actions: %w", err)
	}
	defer cursor.Close(ctx)

	actions := []models.RemediationAction{}
	if err := cursor.All(ctx, &actions); err != nil {
		return nil, fmt.Errorf("failed to decode remediation actions: %w", err)
	}
	return actions, nil
}

// Update applies a partial update: only the fields present in the request
// are touched. Status changes go through the forward-only lifecycle check;
// an invalid transition rejects the whole update.
func (s *RemediationService) Update(ctx context.Context, tenantID, actionID string, req *models.UpdateActionRequest) (*models.RemediationAction, error) {
	action, err := s.Get(ctx, tenantID, actionID)
	if err != nil {
		return nil, err
	}

	update := bson.M{"updatedAt": time.Now().UTC()}

	if req.Status != nil {
		next := *req.Status
		if !next.IsValid() {
			return nil, models.NewValidationError("status", fmt.Sprintf("unknown action status %q", next))
		}
		if !action.Status.CanTransitionTo(next) {
			return nil, &models.StateTransitionError{Entity: "remediation action", From: string(action.Status), To: string(next)}
		}
		update["status"] = next
	}
	if req.ActionSummary != nil {
		if strings.TrimSpace(*req.ActionSummary) == "" {
			return nil, models.NewValidationError("actionSummary", "must not be empty")
		}
		update["actionSummary"] = strings.TrimSpace(*req.ActionSummary)
	}
	if req.DetailedNotes != nil {
		update["detailedNotes"] = *req.DetailedNotes
	}

	// Guard on the status the transition was validated against, so two
	// racing updates can't both move the machine.
	filter := bson.M{"_id": actionID, "tenantId": tenantID, "status": action.Status}
	result, err := s.collection().UpdateOne(ctx, filter, bson.M{"$set": update})
	if err != nil {
		return nil, fmt.Errorf("failed to update remediation action: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, &models.StateTransitionError{Entity: "remediation action", From: string(action.Status), To: "concurrent update"}
	}

	return s.Get(ctx, tenantID, actionID)
}

// Delete hard-deletes an action. Restricted to the creating user.
func (s *RemediationService) Delete(ctx context.Context, tenantID, userID, actionID string) error {
	result, err := s.collection().DeleteOne(ctx, bson.M{
		"_id":       actionID,
		"tenantId":  tenantID,
		"createdBy": userID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete remediation action: %w", err)
	}
	if result.DeletedCount == 0 {
		return models.NewNotFoundError("remediation action", actionID)
	}
	return nil
}

// EnsureIndexes creates the remediation action indexes
func (s *RemediationService) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "workerId", Value: 1},
				{Key: "agentType", Value: 1},
			},
		},
	}

	_, err := s.collection().Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create remediation action indexes: %w", err)
	}
	return nil
}

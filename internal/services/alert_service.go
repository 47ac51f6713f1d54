package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"complians/internal/agents"
	"complians/internal/database"
	"complians/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AlertService manages tenant-scoped alerts with a forward-only lifecycle:
// Unread -> Read, Unread -> Dismissed, Read -> Dismissed
type AlertService struct {
	mongoDB  *database.MongoDB
	registry *agents.Registry
}

// NewAlertService creates an alert service
func NewAlertService(mongoDB *database.MongoDB, registry *agents.Registry) *AlertService {
	return &AlertService{mongoDB: mongoDB, registry: registry}
}

func (s *AlertService) collection() *mongo.Collection {
	return s.mongoDB.Database().Collection(database.CollectionAlerts)
}

// Create raises a manual alert. The message must be non-empty and the agent
// type registered.
func (s *AlertService) Create(ctx context.Context, tenantID string, req *models.CreateAlertRequest) (*models.Alert, error) {
	if strings.TrimSpace(req.AlertMessage) == "" {
		return nil, models.NewValidationError("alertMessage", "required field missing")
	}
	if !s.registry.IsRegistered(req.AgentType) {
		return nil, models.NewValidationError("agentType", fmt.Sprintf("unknown agent type %q", req.AgentType))
	}

	return s.insert(ctx, &models.Alert{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		WorkerID:     req.WorkerID,
		AgentType:    req.AgentType,
		AlertMessage: strings.TrimSpace(req.AlertMessage),
		Status:       models.AlertUnread,
		CreatedAt:    time.Now().UTC(),
	})
}

// RaiseRedFlag records the automatic alert for a newly flagged agent record.
// Called by the assessment pipeline when the aggregate's red-flag count
// strictly increased.
func (s *AlertService) RaiseRedFlag(ctx context.Context, tenantID, workerID, workerName, agentType string) (*models.Alert, error) {
	displayName := agentType
	if def, ok := s.registry.Get(agentType); ok {
		displayName = def.DisplayName
	}

	alert, err := s.insert(ctx, &models.Alert{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		WorkerID:     workerID,
		AgentType:    agentType,
		AlertMessage: fmt.Sprintf("Red flag raised for %s: %s assessment found a serious breach requiring urgent attention", workerName, displayName),
		Status:       models.AlertUnread,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	GetMetrics().ObserveAlertRaised()
	log.Printf("🚨 [ALERT] Red flag alert %s raised for worker %s (%s)", alert.ID, workerID, agentType)
	return alert, nil
}

func (s *AlertService) insert(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	if _, err := s.collection().InsertOne(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

// List returns the tenant's alerts, newest first, optionally filtered by
// status. limit is clamped to [1, 200], defaulting to 50.
func (s *AlertService) List(ctx context.Context, tenantID string, status models.AlertStatus, limit int) ([]models.Alert, error) {
	if status != "" && !status.IsValid() {
		return nil, models.NewValidationError("status", fmt.Sprintf("unknown alert status %q", status))
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	filter := bson.M{"tenantId": tenantID}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := s.collection().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer cursor.Close(ctx)

	alerts := []models.Alert{}
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}
	return alerts, nil
}

// UpdateStatus moves an alert along its lifecycle. Invalid transitions fail
// with a StateTransitionError and leave the alert unchanged.
func (s *AlertService) UpdateStatus(ctx context.Context, tenantID, alertID string, next models.AlertStatus) (*models.Alert, error) {
	if !next.IsValid() {
		return nil, models.NewValidationError("status", fmt.Sprintf("unknown alert status %q", next))
	}

	var alert models.Alert
	err := s.collection().FindOne(ctx, bson.M{"_id": alertID, "tenantId": tenantID}).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("alert", alertID)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	if !alert.Status.CanTransitionTo(next) {
		return nil, &models.StateTransitionError{Entity: "alert", From: string(alert.Status), To: string(next)}
	}

	update := bson.M{"status": next}
	var dismissedAt *time.Time
	if next == models.AlertDismissed {
		now := time.Now().UTC()
		dismissedAt = &now
		update["dismissedAt"] = now
	}

	// Guard on the current status so a concurrent transition can't be
	// overwritten with a stale one.
	result, err := s.collection().UpdateOne(ctx,
		bson.M{"_id": alertID, "tenantId": tenantID, "status": alert.Status},
		bson.M{"$set": update})
	if err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, &models.StateTransitionError{Entity: "alert", From: string(alert.Status), To: string(next)}
	}

	alert.Status = next
	alert.DismissedAt = dismissedAt
	return &alert, nil
}

// DeleteDismissedBefore removes dismissed alerts older than the cutoff.
// Used by the retention cleanup job.
func (s *AlertService) DeleteDismissedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.collection().DeleteMany(ctx, bson.M{
		"status":      models.AlertDismissed,
		"dismissedAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete dismissed alerts: %w", err)
	}
	return result.DeletedCount, nil
}

// EnsureIndexes creates the alert indexes
func (s *AlertService) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenantId", Value: 1},
				{Key: "status", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "dismissedAt", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := s.collection().Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create alert indexes: %w", err)
	}
	return nil
}

package models

import "time"

// AlertStatus is the alert lifecycle state
type AlertStatus string

const (
	AlertUnread    AlertStatus = "Unread"
	AlertRead      AlertStatus = "Read"
	AlertDismissed AlertStatus = "Dismissed"
)

// IsValid reports whether s is a known alert status
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertUnread, AlertRead, AlertDismissed:
		return true
	}
	return false
}

// CanTransitionTo enforces the forward-only lifecycle:
// Unread -> Read, Unread -> Dismissed, Read -> Dismissed
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	switch s {
	case AlertUnread:
		return next == AlertRead || next == AlertDismissed
	case AlertRead:
		return next == AlertDismissed
	}
	return false
}

// Alert is a tenant-scoped notification. Automatic alerts reference the
// worker and the agent whose record change introduced a new red flag;
// manual alerts may omit the worker for tenant-wide notices.
type Alert struct {
	ID           string      `bson:"_id" json:"id"`
	TenantID     string      `bson:"tenantId" json:"tenantId"`
	WorkerID     string      `bson:"workerId,omitempty" json:"workerId,omitempty"`
	AgentType    string      `bson:"agentType" json:"agentType"`
	AlertMessage string      `bson:"alertMessage" json:"alertMessage"`
	Status       AlertStatus `bson:"status" json:"status"`
	CreatedAt    time.Time   `bson:"createdAt" json:"createdAt"`
	DismissedAt  *time.Time  `bson:"dismissedAt,omitempty" json:"dismissedAt,omitempty"`
}

// CreateAlertRequest is the payload for manual alert creation
type CreateAlertRequest struct {
	WorkerID     string `json:"workerId,omitempty"`
	AgentType    string `json:"agentType"`
	AlertMessage string `json:"alertMessage"`
}

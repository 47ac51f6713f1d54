package models

import "fmt"

// ValidationError means the caller sent bad input (unknown agent type,
// missing required field). Maps to 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError means the referenced entity doesn't exist or isn't owned by
// the requesting tenant. Maps to 404 — ownership failures are deliberately
// indistinguishable from missing rows.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError builds a NotFoundError
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ProviderError means the AI provider call failed (timeout, non-2xx,
// malformed or verdict-less response). Never surfaced to callers — the
// narrative generator recovers with the template fallback.
type ProviderError struct {
	Reason string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider: %s: %v", e.Reason, e.Err)
	}
	return "provider: " + e.Reason
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StateTransitionError means a remediation action or alert was asked to move
// against its forward-only lifecycle. Maps to 409; state is left unchanged.
type StateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}

// AggregationInconsistency means a stored aggregate snapshot disagrees with a
// fresh recompute from the record set. Given the pure-recompute design this
// indicates a storage bug, not a usage error; it is logged, counted, and the
// snapshot repaired.
type AggregationInconsistency struct {
	WorkerID string
	Detail   string
}

func (e *AggregationInconsistency) Error() string {
	return fmt.Sprintf("aggregate inconsistency for worker %s: %s", e.WorkerID, e.Detail)
}

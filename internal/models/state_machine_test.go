package models

import "testing"

func TestActionStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to ActionStatus
		want     bool
	}{
		{ActionOpen, ActionInProgress, true},
		{ActionOpen, ActionCompleted, true},
		{ActionInProgress, ActionCompleted, true},
		{ActionCompleted, ActionOpen, false},
		{ActionCompleted, ActionInProgress, false},
		{ActionInProgress, ActionOpen, false},
		{ActionOpen, ActionOpen, false},
		{ActionCompleted, ActionCompleted, false},
		{ActionOpen, ActionStatus("Archived"), false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestAlertStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to AlertStatus
		want     bool
	}{
		{AlertUnread, AlertRead, true},
		{AlertUnread, AlertDismissed, true},
		{AlertRead, AlertDismissed, true},
		{AlertRead, AlertUnread, false},
		{AlertDismissed, AlertRead, false},
		{AlertDismissed, AlertUnread, false},
		{AlertUnread, AlertUnread, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestComplianceStatusOrdering(t *testing.T) {
	if !StatusSeriousBreach.WorseThan(StatusBreach) {
		t.Error("SERIOUS_BREACH must outrank BREACH")
	}
	if !StatusBreach.WorseThan(StatusCompliant) {
		t.Error("BREACH must outrank COMPLIANT")
	}
	if StatusPending.WorseThan(StatusCompliant) {
		t.Error("PENDING must not outrank any real verdict")
	}
	if StatusCompliant.WorseThan(StatusSeriousBreach) {
		t.Error("COMPLIANT must not outrank SERIOUS_BREACH")
	}
}

func TestRiskLevelOrdering(t *testing.T) {
	if !RiskHigh.WorseThan(RiskMedium) || !RiskMedium.WorseThan(RiskLow) {
		t.Error("risk ordering must be HIGH > MEDIUM > LOW")
	}
	if RiskLow.WorseThan(RiskHigh) {
		t.Error("LOW must not outrank HIGH")
	}
}

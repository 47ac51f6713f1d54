package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"complians/internal/agents"
	"complians/internal/models"
)

func testFacts() models.WorkerFacts {
	return models.WorkerFacts{
		Name:           "Amina Khalid",
		JobTitle:       "Care Assistant",
		SOCCode:        "6145",
		CoSReference:   "C2G4K91823Q",
		AssignmentDate: "2025-03-01",
	}
}

func newTemplateOnlyService() *NarrativeService {
	registry := agents.NewRegistry()
	ai := NewAIClient("https://example.invalid", "", "test-model", time.Second, 100)
	cache := NewNarrativeCache(time.Minute, nil, 0)
	return NewNarrativeService(registry, ai, cache)
}

func TestGenerateUnknownAgentType(t *testing.T) {
	svc := newTemplateOnlyService()

	_, err := svc.Generate(context.Background(), "no_such_agent", testFacts(), nil)
	if err == nil {
		t.Fatal("expected error for unknown agent type")
	}
	var validation *models.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestGenerateFallbackAdverseFinding(t *testing.T) {
	svc := newTemplateOnlyService()

	verdict, err := svc.Generate(context.Background(), "salary_threshold", testFacts(), map[string]interface{}{
		"missing_payslips": true,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if verdict.Status != models.StatusSeriousBreach {
		t.Errorf("expected SERIOUS_BREACH, got %s", verdict.Status)
	}
	if verdict.RiskLevel != models.RiskHigh {
		t.Errorf("expected HIGH, got %s", verdict.RiskLevel)
	}
	if verdict.Source != models.SourceTemplate {
		t.Errorf("expected TEMPLATE source, got %s", verdict.Source)
	}
	if !verdict.RedFlag {
		t.Error("expected a red flag")
	}
	if verdict.Narrative == "" {
		t.Error("expected a non-empty narrative")
	}
}

func TestGenerateFallbackClean(t *testing.T) {
	svc := newTemplateOnlyService()

	verdict, err := svc.Generate(context.Background(), "right_to_work", testFacts(), map[string]interface{}{
		"rtw_check_missing": false,
		"check_date":        "2025-02-20",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if verdict.Status != models.StatusCompliant {
		t.Errorf("expected COMPLIANT, got %s", verdict.Status)
	}
	if verdict.RiskLevel != models.RiskLow {
		t.Errorf("expected LOW, got %s", verdict.RiskLevel)
	}
	if verdict.RedFlag {
		t.Error("did not expect a red flag")
	}
	if verdict.Source != models.SourceTemplate {
		t.Errorf("expected TEMPLATE source, got %s", verdict.Source)
	}
}

func TestGenerateFallbackTotality(t *testing.T) {
	svc := newTemplateOnlyService()

	// Every registered agent must yield a well-formed verdict with the
	// provider down
	for _, agentType := range svc.registry.Types() {
		verdict, err := svc.Generate(context.Background(), agentType, testFacts(), map[string]interface{}{})
		if err != nil {
			t.Fatalf("Generate(%s) failed: %v", agentType, err)
		}
		if verdict.Status == "" || verdict.RiskLevel == "" || verdict.Narrative == "" {
			t.Errorf("Generate(%s) returned an incomplete verdict: %+v", agentType, verdict)
		}
	}
}

func TestGenerateCacheRoundTrip(t *testing.T) {
	svc := newTemplateOnlyService()
	input := map[string]interface{}{"missing_payslips": true}

	first, err := svc.Generate(context.Background(), "salary_threshold", testFacts(), input)
	if err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	if first.Source == models.SourceCache {
		t.Fatal("first call must not be a cache hit")
	}

	second, err := svc.Generate(context.Background(), "salary_threshold", testFacts(), input)
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}

	if second.Source != models.SourceCache {
		t.Errorf("expected CACHE source on second call, got %s", second.Source)
	}
	if second.Status != first.Status || second.RiskLevel != first.RiskLevel || second.Narrative != first.Narrative {
		t.Error("cached verdict differs from the original")
	}
}

func TestGenerateTypeAliasedInputDoesNotShareCache(t *testing.T) {
	svc := newTemplateOnlyService()
	ctx := context.Background()

	adverse, err := svc.Generate(ctx, "salary_threshold", testFacts(), map[string]interface{}{
		"payslips_missing": true,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if adverse.Status != models.StatusSeriousBreach {
		t.Fatalf("expected SERIOUS_BREACH for the bool finding, got %s", adverse.Status)
	}

	// The string "true" is not an adverse finding. It must be judged on its
	// own, never served the bool input's verdict from the cache.
	clean, err := svc.Generate(ctx, "salary_threshold", testFacts(), map[string]interface{}{
		"payslips_missing": "true",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if clean.Source == models.SourceCache {
		t.Fatal("string-typed input was served the bool input's cached verdict")
	}
	if clean.Status != models.StatusCompliant {
		t.Errorf("expected COMPLIANT for the string value, got %s", clean.Status)
	}
	if clean.RedFlag {
		t.Error("string-typed input must not carry the bool input's red flag")
	}
}

func TestGenerateAIPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"VERDICT: BREACH\nRISK: MEDIUM\nThe worker's salary dipped below the going rate for two months."}}]}`))
	}))
	defer server.Close()

	registry := agents.NewRegistry()
	ai := NewAIClient(server.URL, "test-key", "test-model", 5*time.Second, 100)
	cache := NewNarrativeCache(time.Minute, nil, 0)
	svc := NewNarrativeService(registry, ai, cache)

	verdict, err := svc.Generate(context.Background(), "salary_threshold", testFacts(), map[string]interface{}{
		"annual_salary": "23000",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if verdict.Status != models.StatusBreach {
		t.Errorf("expected BREACH, got %s", verdict.Status)
	}
	if verdict.RiskLevel != models.RiskMedium {
		t.Errorf("expected MEDIUM, got %s", verdict.RiskLevel)
	}
	if verdict.Source != models.SourceAI {
		t.Errorf("expected AI source, got %s", verdict.Source)
	}
	if verdict.RedFlag {
		t.Error("BREACH without red-flag keys should not flag")
	}
}

func TestGenerateMalformedAIResponseFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"The worker seems fine to me."}}]}`))
	}))
	defer server.Close()

	registry := agents.NewRegistry()
	ai := NewAIClient(server.URL, "test-key", "test-model", 5*time.Second, 100)
	cache := NewNarrativeCache(time.Minute, nil, 0)
	svc := NewNarrativeService(registry, ai, cache)

	verdict, err := svc.Generate(context.Background(), "right_to_work", testFacts(), map[string]interface{}{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if verdict.Source != models.SourceTemplate {
		t.Errorf("expected TEMPLATE fallback for a response without a verdict line, got %s", verdict.Source)
	}
}

func TestParseVerdict(t *testing.T) {
	def := &agents.Definition{Type: "salary_threshold", DisplayName: "Salary Threshold"}

	tests := []struct {
		name       string
		text       string
		wantStatus models.ComplianceStatus
		wantRisk   models.RiskLevel
		wantErr    bool
	}{
		{
			name:       "full response",
			text:       "VERDICT: SERIOUS_BREACH\nRISK: HIGH\nNo payslips held.",
			wantStatus: models.StatusSeriousBreach,
			wantRisk:   models.RiskHigh,
		},
		{
			name:       "verdict with space",
			text:       "verdict: serious breach\nNarrative.",
			wantStatus: models.StatusSeriousBreach,
			wantRisk:   models.RiskHigh,
		},
		{
			name:       "risk omitted defaults by status",
			text:       "VERDICT: BREACH\nSalary below going rate.",
			wantStatus: models.StatusBreach,
			wantRisk:   models.RiskMedium,
		},
		{
			name:       "compliant defaults low",
			text:       "VERDICT: COMPLIANT",
			wantStatus: models.StatusCompliant,
			wantRisk:   models.RiskLow,
		},
		{
			name:    "no verdict line",
			text:    "All looks good.",
			wantErr: true,
		},
		{
			name:    "multiple verdict lines",
			text:    "VERDICT: COMPLIANT\nVERDICT: BREACH",
			wantErr: true,
		},
		{
			name:    "unrecognised verdict",
			text:    "VERDICT: MAYBE",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := parseVerdict(tt.text, def, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVerdict failed: %v", err)
			}
			if verdict.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", verdict.Status, tt.wantStatus)
			}
			if verdict.RiskLevel != tt.wantRisk {
				t.Errorf("risk = %s, want %s", verdict.RiskLevel, tt.wantRisk)
			}
		})
	}
}

func TestMatchesAdversePattern(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"rtw_check_missing", true},
		{"missing_payslips", true},
		{"cos_expired", true},
		{"expired_visa", true},
		{"share_code_invalid", true},
		{"invalid_soc", true},
		{"annual_salary", false},
		{"check_date", false},
		{"missingpayslips", false},
	}

	for _, tt := range tests {
		if got := matchesAdversePattern(tt.key); got != tt.want {
			t.Errorf("matchesAdversePattern(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

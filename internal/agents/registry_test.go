package agents

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"complians/internal/models"
)

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()

	if r.Count() != 15 {
		t.Errorf("expected 15 built-in agents, got %d", r.Count())
	}

	for _, agentType := range []string{
		"right_to_work", "salary_threshold", "soc_code_skill_level",
		"cos_assignment", "reporting_duties", "record_keeping",
		"absence_monitoring", "visa_expiry", "sponsor_licence_rating",
		"job_description_match", "working_hours", "recruitment_practices",
		"genuine_vacancy", "maintenance_funds", "immigration_skills_charge",
	} {
		if !r.IsRegistered(agentType) {
			t.Errorf("expected built-in agent %s", agentType)
		}
	}

	if r.IsRegistered("made_up_agent") {
		t.Error("unexpected registration for unknown type")
	}
}

func TestRegistryTypesSorted(t *testing.T) {
	r := NewRegistry()
	types := r.Types()

	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Fatalf("Types() not sorted: %v", types)
		}
	}
}

func TestValidateInput(t *testing.T) {
	def := Definition{
		Type: "test_agent",
		InputSchema: []InputField{
			{Name: "evidence_missing", Kind: FieldBool, Required: true},
			{Name: "notes", Kind: FieldString},
		},
	}

	if err := def.ValidateInput(map[string]interface{}{"evidence_missing": true}); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}

	if err := def.ValidateInput(map[string]interface{}{}); err == nil {
		t.Error("missing required field accepted")
	}

	if err := def.ValidateInput(map[string]interface{}{"evidence_missing": "yes"}); err == nil {
		t.Error("wrong type for bool field accepted")
	}

	if err := def.ValidateInput(map[string]interface{}{"evidence_missing": false, "count": 3}); err == nil {
		t.Error("non-scalar value accepted")
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	r := NewRegistry()
	def, ok := r.Get("salary_threshold")
	if !ok {
		t.Fatal("salary_threshold not registered")
	}

	facts := models.WorkerFacts{
		Name: "Amina Khalid", JobTitle: "Care Assistant",
		SOCCode: "6145", CoSReference: "C2G4K91823Q", AssignmentDate: "2025-03-01",
	}
	input := map[string]interface{}{"missing_payslips": true, "annual_salary": "23000"}

	prompt := def.BuildPrompt(facts, input)

	if !strings.Contains(prompt, "Amina Khalid") || !strings.Contains(prompt, "6145") {
		t.Error("prompt missing worker facts")
	}
	if !strings.Contains(prompt, "VERDICT:") {
		t.Error("prompt missing verdict instruction")
	}
	// Findings appear in sorted key order regardless of map iteration
	salaryIdx := strings.Index(prompt, "annual_salary")
	payslipsIdx := strings.Index(prompt, "missing_payslips")
	if salaryIdx < 0 || payslipsIdx < 0 || salaryIdx > payslipsIdx {
		t.Error("findings missing or not in sorted order")
	}

	for i := 0; i < 10; i++ {
		if def.BuildPrompt(facts, input) != prompt {
			t.Fatal("BuildPrompt is not deterministic")
		}
	}
}

func TestLoadFileOverridesAndExtends(t *testing.T) {
	yamlContent := `
agents:
  - type: salary_threshold
    displayName: Salary Threshold (2026 rates)
    promptTemplate: Assess against the April 2026 going rates.
  - type: custom_audit
    displayName: Custom Audit
    inputSchema:
      - name: finding_missing
        kind: bool
`
	path := filepath.Join(t.TempDir(), "agents.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if r.Count() != 16 {
		t.Errorf("expected 16 agents after extension, got %d", r.Count())
	}

	def, ok := r.Get("salary_threshold")
	if !ok || def.DisplayName != "Salary Threshold (2026 rates)" {
		t.Errorf("override not applied: %+v", def)
	}

	if !r.IsRegistered("custom_audit") {
		t.Error("extension agent not registered")
	}

	// Built-ins untouched by the file stay registered
	if !r.IsRegistered("visa_expiry") {
		t.Error("built-in lost during load")
	}
}

func TestLoadFileRejectsMissingType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents.yaml")
	if err := os.WriteFile(path, []byte("agents:\n  - displayName: No Type\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadFile(path); err == nil {
		t.Error("expected error for definition without a type")
	}
	if r.Count() != 15 {
		t.Errorf("failed load must keep previous definitions, got %d", r.Count())
	}
}

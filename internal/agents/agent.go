package agents

import (
	"fmt"
	"sort"
	"strings"

	"complians/internal/models"
)

// FieldKind is the type of one assessment-input field
type FieldKind string

const (
	FieldBool   FieldKind = "bool"
	FieldString FieldKind = "string"
)

// InputField describes one expected key in an agent's assessment input
type InputField struct {
	Name     string    `yaml:"name"`
	Kind     FieldKind `yaml:"kind"`
	Required bool      `yaml:"required"`
}

// Definition is one compliance agent. The behaviour-specific pieces are
// pure data: the input schema, the prompt template and the extra keys the
// fallback treats as red flags. The legal rule text lives in PromptTemplate.
type Definition struct {
	Type           string       `yaml:"type"`
	DisplayName    string       `yaml:"displayName"`
	Description    string       `yaml:"description"`
	InputSchema    []InputField `yaml:"inputSchema"`
	PromptTemplate string       `yaml:"promptTemplate"`
	RedFlagKeys    []string     `yaml:"redFlagKeys"`
}

// ValidateInput checks an assessment input against the schema: required
// fields present, all values bool or string
func (d *Definition) ValidateInput(input map[string]interface{}) error {
	for _, f := range d.InputSchema {
		v, ok := input[f.Name]
		if !ok {
			if f.Required {
				return models.NewValidationError("assessmentInput."+f.Name, "required field missing")
			}
			continue
		}
		switch f.Kind {
		case FieldBool:
			if _, ok := v.(bool); !ok {
				return models.NewValidationError("assessmentInput."+f.Name, "expected boolean")
			}
		case FieldString:
			if _, ok := v.(string); !ok {
				return models.NewValidationError("assessmentInput."+f.Name, "expected string")
			}
		}
	}
	for k, v := range input {
		switch v.(type) {
		case bool, string:
		default:
			return models.NewValidationError("assessmentInput."+k, "values must be boolean or string")
		}
	}
	return nil
}

// BuildPrompt assembles the provider prompt from the rule template, the
// worker facts and the findings. Findings are emitted in sorted key order so
// identical inputs always produce an identical prompt.
func (d *Definition) BuildPrompt(facts models.WorkerFacts, input map[string]interface{}) string {
	var b strings.Builder

	b.WriteString(d.PromptTemplate)
	b.WriteString("\n\nWorker under assessment:\n")
	fmt.Fprintf(&b, "- name: %s\n", facts.Name)
	fmt.Fprintf(&b, "- job title: %s\n", facts.JobTitle)
	fmt.Fprintf(&b, "- SOC code: %s\n", facts.SOCCode)
	fmt.Fprintf(&b, "- CoS reference: %s\n", facts.CoSReference)
	fmt.Fprintf(&b, "- assignment date: %s\n", facts.AssignmentDate)

	b.WriteString("\nAssessment findings:\n")
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, input[k])
	}

	b.WriteString("\nRespond with a line 'VERDICT: COMPLIANT', 'VERDICT: BREACH' or 'VERDICT: SERIOUS_BREACH', ")
	b.WriteString("a line 'RISK: LOW', 'RISK: MEDIUM' or 'RISK: HIGH', ")
	b.WriteString("then a short compliance narrative suitable for an HR audit file.")

	return b.String()
}

package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"complians/internal/agents"
	"complians/internal/models"
)

// NarrativeService resolves a verdict for one (agent, worker, input) triple:
// cache first, then the AI provider, then the deterministic template
// fallback. Provider failures never escape this service — the caller always
// receives a verdict and learns the derivation from the Source field.
type NarrativeService struct {
	registry *agents.Registry
	ai       *AIClient
	cache    *NarrativeCache
}

// NewNarrativeService creates a narrative service
func NewNarrativeService(registry *agents.Registry, ai *AIClient, cache *NarrativeCache) *NarrativeService {
	return &NarrativeService{
		registry: registry,
		ai:       ai,
		cache:    cache,
	}
}

// Generate produces a verdict for an agent assessment. agentType must be
// registered and assessmentInput must satisfy the agent's schema; everything
// past validation is infallible.
func (s *NarrativeService) Generate(ctx context.Context, agentType string, facts models.WorkerFacts, input map[string]interface{}) (*models.Verdict, error) {
	def, ok := s.registry.Get(agentType)
	if !ok {
		return nil, models.NewValidationError("agentType", fmt.Sprintf("unknown agent type %q", agentType))
	}
	if err := def.ValidateInput(input); err != nil {
		return nil, err
	}

	fingerprint := Fingerprint(agentType, facts, input)

	if entry, found := s.cache.Get(ctx, fingerprint); found {
		GetMetrics().ObserveCache(true)
		return &models.Verdict{
			Status:    entry.Status,
			RiskLevel: entry.RiskLevel,
			RedFlag:   entry.RedFlag,
			Narrative: entry.Narrative,
			Source:    models.SourceCache,
		}, nil
	}

	GetMetrics().ObserveCache(false)
	verdict := s.resolve(ctx, &def, facts, input)

	// Cache writes run under a fresh context so a cancelled request still
	// leaves either a complete entry or none.
	s.cache.Set(context.Background(), fingerprint, &CachedVerdict{
		Status:    verdict.Status,
		RiskLevel: verdict.RiskLevel,
		RedFlag:   verdict.RedFlag,
		Narrative: verdict.Narrative,
		Source:    verdict.Source,
		CreatedAt: time.Now(),
	})

	return verdict, nil
}

// resolve tries the provider and falls back to the template generator
func (s *NarrativeService) resolve(ctx context.Context, def *agents.Definition, facts models.WorkerFacts, input map[string]interface{}) *models.Verdict {
	start := time.Now()
	text, err := s.ai.Complete(ctx, def.BuildPrompt(facts, input))
	if err == nil {
		if verdict, parseErr := parseVerdict(text, def, input); parseErr == nil {
			GetMetrics().ObserveAICall(time.Since(start), true)
			return verdict
		} else {
			err = parseErr
		}
	}

	GetMetrics().ObserveAICall(time.Since(start), false)
	log.Printf("⚠️ [NARRATIVE] Provider failed for %s, using template fallback: %v", def.Type, err)

	return templateVerdict(def, facts, input)
}

// parseVerdict extracts the verdict and risk lines from a provider response.
// A response without an unambiguous verdict line is a provider failure.
func parseVerdict(text string, def *agents.Definition, input map[string]interface{}) (*models.Verdict, error) {
	var status models.ComplianceStatus
	var risk models.RiskLevel
	var narrative []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		switch {
		case strings.HasPrefix(upper, "VERDICT:"):
			if status != "" {
				return nil, &models.ProviderError{Reason: "multiple verdict lines in response"}
			}
			value := strings.TrimSpace(upper[len("VERDICT:"):])
			value = strings.ReplaceAll(value, " ", "_")
			parsed := models.ComplianceStatus(value)
			if parsed != models.StatusCompliant && parsed != models.StatusBreach && parsed != models.StatusSeriousBreach {
				return nil, &models.ProviderError{Reason: fmt.Sprintf("unrecognised verdict %q", value)}
			}
			status = parsed
		case strings.HasPrefix(upper, "RISK:"):
			value := models.RiskLevel(strings.TrimSpace(upper[len("RISK:"):]))
			if value.IsValid() {
				risk = value
			}
		default:
			if trimmed != "" {
				narrative = append(narrative, trimmed)
			}
		}
	}

	if status == "" {
		return nil, &models.ProviderError{Reason: "no verdict line in response"}
	}

	if risk == "" {
		risk = defaultRiskFor(status)
	}

	narrativeText := strings.Join(narrative, "\n")
	if narrativeText == "" {
		narrativeText = fmt.Sprintf("%s assessment: %s.", def.DisplayName, status)
	}

	return &models.Verdict{
		Status:    status,
		RiskLevel: risk,
		RedFlag:   status == models.StatusSeriousBreach || hasExplicitRedFlag(def, input),
		Narrative: narrativeText,
		Source:    models.SourceAI,
	}, nil
}

// defaultRiskFor maps a status to its risk band when the provider omits one
func defaultRiskFor(status models.ComplianceStatus) models.RiskLevel {
	switch status {
	case models.StatusSeriousBreach:
		return models.RiskHigh
	case models.StatusBreach:
		return models.RiskMedium
	}
	return models.RiskLow
}

// adverseSuffixes are the input-key patterns the fallback treats as adverse
// findings when their value is true
var adverseSuffixes = []string{"_missing", "_expired", "_invalid"}

// templateVerdict is the deterministic fallback: pure, total, no network.
// Any adverse finding yields SERIOUS_BREACH / HIGH with a red flag;
// otherwise the worker is COMPLIANT / LOW for this agent.
func templateVerdict(def *agents.Definition, facts models.WorkerFacts, input map[string]interface{}) *models.Verdict {
	findings := adverseFindings(def, input)

	if len(findings) == 0 {
		return &models.Verdict{
			Status:    models.StatusCompliant,
			RiskLevel: models.RiskLow,
			RedFlag:   false,
			Narrative: fmt.Sprintf("%s assessment for %s: no adverse findings were recorded against the submitted evidence. The worker is assessed as COMPLIANT for this duty.", def.DisplayName, facts.Name),
			Source:    models.SourceTemplate,
		}
	}

	return &models.Verdict{
		Status:    models.StatusSeriousBreach,
		RiskLevel: models.RiskHigh,
		RedFlag:   true,
		Narrative: fmt.Sprintf("%s assessment for %s: the following adverse findings were recorded: %s. This constitutes a SERIOUS_BREACH of sponsor duties and requires immediate remediation.", def.DisplayName, facts.Name, strings.Join(findings, ", ")),
		Source:    models.SourceTemplate,
	}
}

// adverseFindings returns the sorted list of true adverse keys: the
// *_missing/*_expired/*_invalid patterns plus the agent's own red-flag keys
func adverseFindings(def *agents.Definition, input map[string]interface{}) []string {
	redFlagKeys := make(map[string]bool, len(def.RedFlagKeys))
	for _, k := range def.RedFlagKeys {
		redFlagKeys[k] = true
	}

	var findings []string
	for k, v := range input {
		b, ok := v.(bool)
		if !ok || !b {
			continue
		}
		if matchesAdversePattern(k) || redFlagKeys[k] {
			findings = append(findings, k)
		}
	}
	sort.Strings(findings)
	return findings
}

// matchesAdversePattern reports whether a key carries one of the adverse
// markers as a suffix or a leading token (missing_payslips, cos_expired)
func matchesAdversePattern(key string) bool {
	for _, suffix := range adverseSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
		if strings.HasPrefix(key, strings.TrimPrefix(suffix, "_")+"_") {
			return true
		}
	}
	return false
}

// hasExplicitRedFlag reports whether any of the agent's red-flag keys is true
func hasExplicitRedFlag(def *agents.Definition, input map[string]interface{}) bool {
	for _, k := range def.RedFlagKeys {
		if b, ok := input[k].(bool); ok && b {
			return true
		}
	}
	return false
}

package preflight

import (
	"fmt"
	"log"
	"os"

	"complians/internal/config"
	"complians/internal/database"
)

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Checker performs pre-flight checks before the server starts taking
// assessments
type Checker struct {
	db  *database.DB
	cfg *config.Config
}

// NewChecker creates a new preflight checker
func NewChecker(db *database.DB, cfg *config.Config) *Checker {
	return &Checker{db: db, cfg: cfg}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll() []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkDatabaseConnection(),
		c.checkDatabaseSchema(),
		c.checkRiskWeights(),
		c.checkProductionSecrets(),
	}

	passed, failed, warnings := 0, 0, 0
	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("\n📊 Pre-flight summary: %d passed, %d failed, %d warnings\n", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == "fail" {
			return true
		}
	}
	return false
}

func (c *Checker) checkDatabaseConnection() CheckResult {
	if err := c.db.Ping(); err != nil {
		return CheckResult{
			Name:    "Database Connection",
			Status:  "fail",
			Message: "Cannot connect to database",
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Database Connection",
		Status:  "pass",
		Message: "Database connection successful",
	}
}

// checkDatabaseSchema verifies the worker tables exist after Initialize
func (c *Checker) checkDatabaseSchema() CheckResult {
	requiredTables := []string{"workers", "worker_aggregates"}

	for _, table := range requiredTables {
		var count int
		var query string
		if c.db.Dialect() == database.DialectMySQL {
			query = "SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?"
		} else {
			query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
		}
		err := c.db.QueryRow(query, table).Scan(&count)
		if err != nil || count == 0 {
			return CheckResult{
				Name:    "Database Schema",
				Status:  "fail",
				Message: fmt.Sprintf("Required table '%s' not found", table),
				Error:   err,
			}
		}
	}

	return CheckResult{
		Name:    "Database Schema",
		Status:  "pass",
		Message: fmt.Sprintf("All %d required tables exist", len(requiredTables)),
	}
}

// checkRiskWeights rejects weights that would break score monotonicity
func (c *Checker) checkRiskWeights() CheckResult {
	w := c.cfg.RiskWeights
	if w.SeriousBreach < 0 || w.Breach < 0 || w.RedFlag < 0 {
		return CheckResult{
			Name:    "Risk Weights",
			Status:  "fail",
			Message: fmt.Sprintf("Risk weights must be non-negative (got %d/%d/%d)", w.SeriousBreach, w.Breach, w.RedFlag),
		}
	}
	if w.SeriousBreach < w.Breach {
		return CheckResult{
			Name:    "Risk Weights",
			Status:  "warning",
			Message: fmt.Sprintf("Serious-breach weight (%d) is below breach weight (%d)", w.SeriousBreach, w.Breach),
		}
	}

	return CheckResult{
		Name:    "Risk Weights",
		Status:  "pass",
		Message: fmt.Sprintf("Weights %d/%d/%d", w.SeriousBreach, w.Breach, w.RedFlag),
	}
}

// checkProductionSecrets enforces auth configuration outside development
func (c *Checker) checkProductionSecrets() CheckResult {
	environment := os.Getenv("ENVIRONMENT")

	if environment == "production" && c.cfg.JWTSecret == "" {
		return CheckResult{
			Name:    "Secrets",
			Status:  "fail",
			Message: "JWT_SECRET is required in production",
		}
	}

	if c.cfg.AIAPIKey == "" {
		return CheckResult{
			Name:    "Secrets",
			Status:  "warning",
			Message: "AI_API_KEY not set - narratives will use the template fallback only",
		}
	}

	return CheckResult{
		Name:    "Secrets",
		Status:  "pass",
		Message: "All secrets configured",
	}
}

package services

import (
	"context"
	"testing"
	"time"

	"complians/internal/models"
)

func TestFingerprintStable(t *testing.T) {
	facts := testFacts()
	input := map[string]interface{}{"missing_payslips": true, "annual_salary": "26000"}

	a := Fingerprint("salary_threshold", facts, input)
	b := Fingerprint("salary_threshold", facts, input)
	if a != b {
		t.Error("identical inputs produced different fingerprints")
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	facts := testFacts()
	input := map[string]interface{}{"missing_payslips": true}

	base := Fingerprint("salary_threshold", facts, input)

	if Fingerprint("right_to_work", facts, input) == base {
		t.Error("agent type change did not change the fingerprint")
	}

	otherFacts := facts
	otherFacts.SOCCode = "2136"
	if Fingerprint("salary_threshold", otherFacts, input) == base {
		t.Error("worker facts change did not change the fingerprint")
	}

	if Fingerprint("salary_threshold", facts, map[string]interface{}{"missing_payslips": false}) == base {
		t.Error("input value change did not change the fingerprint")
	}
}

func TestFingerprintDistinguishesValueTypes(t *testing.T) {
	facts := testFacts()

	// Undeclared bool-or-string keys pass validation either way, so the
	// fingerprint must keep the types apart or the template verdicts for
	// true and "true" would share a cache entry.
	asBool := Fingerprint("salary_threshold", facts, map[string]interface{}{"payslips_missing": true})
	asString := Fingerprint("salary_threshold", facts, map[string]interface{}{"payslips_missing": "true"})
	if asBool == asString {
		t.Error(`bool true and string "true" produced the same fingerprint`)
	}

	if Fingerprint("salary_threshold", facts, map[string]interface{}{"annual_salary": "26000"}) ==
		Fingerprint("salary_threshold", facts, map[string]interface{}{"annual_salary": "2600", "x": "0"}) {
		t.Error("differently shaped inputs produced the same fingerprint")
	}
}

func TestFingerprintKeyOrderIndependent(t *testing.T) {
	facts := testFacts()

	// Map iteration order varies; the fingerprint must not
	a := Fingerprint("cos_assignment", facts, map[string]interface{}{
		"cos_missing": true, "cos_expired": false, "start_date_before_cos": false,
	})
	for i := 0; i < 20; i++ {
		b := Fingerprint("cos_assignment", facts, map[string]interface{}{
			"start_date_before_cos": false, "cos_expired": false, "cos_missing": true,
		})
		if a != b {
			t.Fatal("fingerprint depends on map iteration order")
		}
	}
}

func TestNarrativeCacheRoundTrip(t *testing.T) {
	cache := NewNarrativeCache(time.Minute, nil, 0)
	ctx := context.Background()
	fp := Fingerprint("salary_threshold", testFacts(), map[string]interface{}{"missing_payslips": true})

	if _, found := cache.Get(ctx, fp); found {
		t.Fatal("unexpected hit on empty cache")
	}

	entry := &CachedVerdict{
		Status:    models.StatusSeriousBreach,
		RiskLevel: models.RiskHigh,
		RedFlag:   true,
		Narrative: "No payslips held for the assessed period.",
		Source:    models.SourceTemplate,
		CreatedAt: time.Now(),
	}
	cache.Set(ctx, fp, entry)

	got, found := cache.Get(ctx, fp)
	if !found {
		t.Fatal("expected cache hit")
	}
	if got.Status != entry.Status || got.Narrative != entry.Narrative || got.Source != entry.Source {
		t.Errorf("cached entry mismatch: %+v", got)
	}

	hits, misses := cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit / 1 miss, got %d / %d", hits, misses)
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 live entry, got %d", cache.Len())
	}
}

func TestNarrativeCacheEntryHitCount(t *testing.T) {
	cache := NewNarrativeCache(time.Minute, nil, 0)
	ctx := context.Background()
	fp := Fingerprint("right_to_work", testFacts(), nil)

	cache.Set(ctx, fp, &CachedVerdict{
		Status:    models.StatusCompliant,
		RiskLevel: models.RiskLow,
		Source:    models.SourceTemplate,
		CreatedAt: time.Now(),
	})

	for i := 1; i <= 3; i++ {
		entry, found := cache.Get(ctx, fp)
		if !found {
			t.Fatal("expected cache hit")
		}
		if entry.HitCount != int64(i) {
			t.Errorf("expected hit count %d, got %d", i, entry.HitCount)
		}
	}
}

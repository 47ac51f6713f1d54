package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"complians/internal/models"

	gocache "github.com/patrickmn/go-cache"
)

// CachedVerdict is one content-addressed narrative cache entry. The verdict
// fields are immutable once written; an overwrite of the same fingerprint
// carries an equal value. HitCount is the only mutable field and is bumped
// atomically on every L1 hit.
type CachedVerdict struct {
	Status    models.ComplianceStatus `json:"status"`
	RiskLevel models.RiskLevel        `json:"riskLevel"`
	RedFlag   bool                    `json:"redFlag"`
	Narrative string                  `json:"narrative"`
	Source    models.VerdictSource    `json:"source"` // AI or TEMPLATE — never CACHE
	CreatedAt time.Time               `json:"createdAt"`
	HitCount  int64                   `json:"hitCount"`
}

// NarrativeCache maps a fingerprint of (agentType, worker facts, assessment
// input) to a previously generated verdict. L1 is in-process with TTL; when
// Redis is available an L2 layer shares entries across instances.
type NarrativeCache struct {
	l1       *gocache.Cache
	redis    *RedisService
	redisTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewNarrativeCache creates the cache. redisService may be nil.
func NewNarrativeCache(ttl time.Duration, redisService *RedisService, redisTTL time.Duration) *NarrativeCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &NarrativeCache{
		l1:       gocache.New(ttl, 10*time.Minute),
		redis:    redisService,
		redisTTL: redisTTL,
	}
}

// Fingerprint computes the stable content address for an assessment: SHA-256
// over canonical JSON (sorted keys) of the agent type, worker facts and input.
// Two workers with identical facts and findings share an entry.
func Fingerprint(agentType string, facts models.WorkerFacts, input map[string]interface{}) string {
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	fmt.Fprintf(h, "agent:%s\n", agentType)
	factsJSON, _ := json.Marshal(facts)
	h.Write(factsJSON)
	h.Write([]byte{'\n'})
	for _, k := range keys {
		// json.Marshal keeps the value's type in the encoding, so a bool
		// true and the string "true" hash to different addresses.
		valueJSON, _ := json.Marshal(input[k])
		fmt.Fprintf(h, "%s=%s\n", k, valueJSON)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get looks up a fingerprint, consulting L1 then Redis. A Redis hit is
// promoted into L1. Hit counting feeds the cache metrics.
func (nc *NarrativeCache) Get(ctx context.Context, fingerprint string) (*CachedVerdict, bool) {
	if v, found := nc.l1.Get(fingerprint); found {
		entry := v.(*CachedVerdict)
		atomic.AddInt64(&entry.HitCount, 1)
		nc.hits.Add(1)
		return entry, true
	}

	if nc.redis != nil {
		raw, err := nc.redis.Get(ctx, "narrative:"+fingerprint)
		if err != nil {
			log.Printf("⚠️ [CACHE] Redis lookup failed: %v", err)
		} else if raw != "" {
			var entry CachedVerdict
			if err := json.Unmarshal([]byte(raw), &entry); err == nil {
				entry.HitCount++
				nc.l1.SetDefault(fingerprint, &entry)
				nc.hits.Add(1)
				return &entry, true
			}
		}
	}

	nc.misses.Add(1)
	return nil, false
}

// Set stores a complete verdict under its fingerprint. Only full entries are
// ever written, so readers never observe a partially-written verdict.
func (nc *NarrativeCache) Set(ctx context.Context, fingerprint string, entry *CachedVerdict) {
	nc.l1.SetDefault(fingerprint, entry)

	if nc.redis != nil {
		raw, err := json.Marshal(entry)
		if err != nil {
			return
		}
		if err := nc.redis.Set(ctx, "narrative:"+fingerprint, raw, nc.redisTTL); err != nil {
			log.Printf("⚠️ [CACHE] Redis write failed: %v", err)
		}
	}
}

// Stats returns cumulative hit and miss counts
func (nc *NarrativeCache) Stats() (hits, misses int64) {
	return nc.hits.Load(), nc.misses.Load()
}

// Len returns the number of live L1 entries
func (nc *NarrativeCache) Len() int {
	return nc.l1.ItemCount()
}

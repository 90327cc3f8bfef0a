package core

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL bounds how long a cached assessment is reused.
const cacheTTL = 7 * 24 * time.Hour

// assess returns the assessment of rec, reusing a cached one when possible.
func (s *Scanner) assess(ctx context.Context, rec schema.FileRecord) schema.AssessmentResult {
	var cache contract.CacheStore
	if s.stores != nil {
		cache = s.stores.GetAssessmentCache()
	}
	if cache == nil {
		return s.assessor.Assess(ctx, rec.Path, rec.Content)
	}

	key := generateCacheKey(s.model, rec)
	if result := checkCacheHit(cache, key); result != nil {
		return *result
	}
	return s.computeAndStore(ctx, cache, key, rec)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(cache contract.CacheStore, key string) *schema.AssessmentResult {
	data, version, ts, err := cache.Get(key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			contract.LogWarn("Assessment cache lookup failed", err)
		}
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil
	}
	var result schema.AssessmentResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}

// computeAndStore assesses rec and caches the result unless it is the fallback.
func (s *Scanner) computeAndStore(ctx context.Context, cache contract.CacheStore, key string, rec schema.FileRecord) schema.AssessmentResult {
	result := s.assessor.Assess(ctx, rec.Path, rec.Content)
	if result.IsFallback() {
		return result
	}

	data, err := json.Marshal(result)
	if err != nil {
		return result
	}
	if err := cache.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Assessment cache store failed", err)
	}
	return result
}

// generateCacheKey addresses an assessment by model, path and content.
func generateCacheKey(model string, rec schema.FileRecord) string {
	h := sha256.New()
	for _, part := range []string{model, rec.Path, rec.Content} {
		_, _ = fmt.Fprintf(h, "%d:%s;", len(part), part)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/internal/iocache"
	"github.com/huangsam/repoaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cachingScanner(assessor contract.Assessor, cache contract.CacheStore) *Scanner {
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetAssessmentCache").Return(cache)
	return NewScanner(nil, assessor, mgr, WithModel("gpt-4o-mini"))
}

func TestGenerateCacheKey(t *testing.T) {
	rec := schema.FileRecord{Path: "app.py", Content: "print(1)\n"}
	key := generateCacheKey("gpt-4o-mini", rec)

	assert.Len(t, key, 64)
	assert.Equal(t, key, generateCacheKey("gpt-4o-mini", rec), "keys are stable")
	assert.NotEqual(t, key, generateCacheKey("gpt-4o", rec))
	assert.NotEqual(t, key, generateCacheKey("gpt-4o-mini", schema.FileRecord{Path: "other.py", Content: rec.Content}))
	assert.NotEqual(t, key, generateCacheKey("gpt-4o-mini", schema.FileRecord{Path: rec.Path, Content: "print(2)\n"}))

	// Field boundaries are part of the key
	assert.NotEqual(t,
		generateCacheKey("m", schema.FileRecord{Path: "ab", Content: "c"}),
		generateCacheKey("m", schema.FileRecord{Path: "a", Content: "bc"}))
}

func TestAssess_CacheHit(t *testing.T) {
	rec := schema.FileRecord{Path: "app.py", Content: "print(1)\n"}
	cached := resultFor("app.py", 7)
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	cache := &iocache.MockCacheStore{}
	cache.On("Get", generateCacheKey("gpt-4o-mini", rec)).Return(data, currentCacheVersion, time.Now().Unix(), nil)
	assessor := &contract.MockAssessor{}

	got := cachingScanner(assessor, cache).assess(context.Background(), rec)

	assert.Equal(t, cached, got)
	assessor.AssertNotCalled(t, "Assess", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAssess_CacheMissStoresResult(t *testing.T) {
	rec := schema.FileRecord{Path: "app.py", Content: "print(1)\n"}
	key := generateCacheKey("gpt-4o-mini", rec)
	fresh := resultFor("app.py", 3)

	cache := &iocache.MockCacheStore{}
	cache.On("Get", key).Return(nil, 0, int64(0), sql.ErrNoRows)
	cache.On("Set", key, mock.MatchedBy(func(data []byte) bool {
		var r schema.AssessmentResult
		return json.Unmarshal(data, &r) == nil && r.Score == 3
	}), currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)

	assessor := &contract.MockAssessor{}
	assessor.On("Assess", mock.Anything, "app.py", rec.Content).Return(fresh)

	got := cachingScanner(assessor, cache).assess(context.Background(), rec)

	assert.Equal(t, fresh, got)
	cache.AssertExpectations(t)
	assessor.AssertExpectations(t)
}

func TestAssess_FallbackIsNotCached(t *testing.T) {
	rec := schema.FileRecord{Path: "app.py", Content: "print(1)\n"}
	cache := &iocache.MockCacheStore{}
	cache.On("Get", mock.Anything).Return(nil, 0, int64(0), sql.ErrNoRows)

	assessor := &contract.MockAssessor{}
	assessor.On("Assess", mock.Anything, "app.py", rec.Content).Return(schema.FallbackResult("app.py"))

	got := cachingScanner(assessor, cache).assess(context.Background(), rec)

	assert.True(t, got.IsFallback())
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAssess_StaleOrForeignEntriesAreIgnored(t *testing.T) {
	rec := schema.FileRecord{Path: "app.py", Content: "print(1)\n"}
	data, err := json.Marshal(resultFor("app.py", 10))
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
	}{
		{"stale", data, currentCacheVersion, time.Now().Add(-cacheTTL - time.Hour).Unix()},
		{"old version", data, currentCacheVersion + 1, time.Now().Unix()},
		{"corrupt", []byte("{not json"), currentCacheVersion, time.Now().Unix()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &iocache.MockCacheStore{}
			cache.On("Get", mock.Anything).Return(tt.data, tt.version, tt.ts, nil)
			cache.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).Return(nil)

			assessor := &contract.MockAssessor{}
			assessor.On("Assess", mock.Anything, "app.py", rec.Content).Return(resultFor("app.py", 4))

			got := cachingScanner(assessor, cache).assess(context.Background(), rec)

			assert.Equal(t, 4, got.Score)
			assessor.AssertExpectations(t)
			cache.AssertCalled(t, "Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything)
		})
	}
}

func TestAssess_CacheFailuresAreIgnored(t *testing.T) {
	rec := schema.FileRecord{Path: "app.py", Content: "print(1)\n"}
	cache := &iocache.MockCacheStore{}
	cache.On("Get", mock.Anything).Return(nil, 0, int64(0), assert.AnError)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	assessor := &contract.MockAssessor{}
	assessor.On("Assess", mock.Anything, "app.py", rec.Content).Return(resultFor("app.py", 6))

	got := cachingScanner(assessor, cache).assess(context.Background(), rec)

	assert.Equal(t, resultFor("app.py", 6), got)
	cache.AssertExpectations(t)
}

func TestAssess_WithoutCache(t *testing.T) {
	rec := schema.FileRecord{Path: "app.py", Content: "print(1)\n"}
	assessor := &contract.MockAssessor{}
	assessor.On("Assess", mock.Anything, "app.py", rec.Content).Return(resultFor("app.py", 5))

	s := NewScanner(nil, assessor, nil)
	assert.Equal(t, 5, s.assess(context.Background(), rec).Score)

	s = cachingScanner(assessor, nil)
	assert.Equal(t, 5, s.assess(context.Background(), rec).Score)
}

// Package iocache persists reports and cached assessments in SQL databases.
package iocache

import (
	"sync"

	"github.com/huangsam/repoaudit/internal/contract"
)

// StoreManager owns the report store and the assessment cache.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	reports      contract.ReportStore
	assessments  contract.CacheStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// NewStoreManager wraps already opened stores. Either may be nil.
func NewStoreManager(reports contract.ReportStore, assessments contract.CacheStore) *StoreManager {
	return &StoreManager{reports: reports, assessments: assessments}
}

// GetReportStore returns the ReportStore.
func (mgr *StoreManager) GetReportStore() contract.ReportStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.reports
}

// GetAssessmentCache returns the assessment CacheStore.
func (mgr *StoreManager) GetAssessmentCache() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.assessments
}

package iocache

import (
	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetReportStore implements the StoreManager interface.
func (m *MockStoreManager) GetReportStore() contract.ReportStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ReportStore)
	return store
}

// GetAssessmentCache implements the StoreManager interface.
func (m *MockStoreManager) GetAssessmentCache() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockReportStore is a mock implementation of ReportStore for testing.
type MockReportStore struct {
	mock.Mock
}

var _ contract.ReportStore = &MockReportStore{} // Compile-time check

// SaveReport implements the ReportStore interface.
func (m *MockReportStore) SaveReport(userID string, report schema.Report) (string, error) {
	args := m.Called(userID, report)
	return args.String(0), args.Error(1)
}

// ListReports implements the ReportStore interface.
func (m *MockReportStore) ListReports(userID string) ([]schema.ReportSummary, error) {
	args := m.Called(userID)
	summaries, _ := args.Get(0).([]schema.ReportSummary)
	return summaries, args.Error(1)
}

// GetReport implements the ReportStore interface.
func (m *MockReportStore) GetReport(userID, reportID string) (*schema.StoredReport, error) {
	args := m.Called(userID, reportID)
	report, _ := args.Get(0).(*schema.StoredReport)
	return report, args.Error(1)
}

// GetStatus implements the ReportStore interface.
func (m *MockReportStore) GetStatus() (schema.ReportStoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.ReportStoreStatus), args.Error(1)
}

// GetAllReports implements the ReportStore interface.
func (m *MockReportStore) GetAllReports() ([]schema.ReportRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.ReportRecord)
	return records, args.Error(1)
}

// GetAllFileResults implements the ReportStore interface.
func (m *MockReportStore) GetAllFileResults() ([]schema.FileResultRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.FileResultRecord)
	return records, args.Error(1)
}

// Close implements the ReportStore interface.
func (m *MockReportStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

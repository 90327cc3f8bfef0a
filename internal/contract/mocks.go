package contract

import (
	"context"

	"github.com/huangsam/repoaudit/schema"
	"github.com/stretchr/testify/mock"
)

// MockGitClient is a mock implementation of GitClient for testing.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	mockArgs := []any{ctx, dir}
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// CloneBranch implements the GitClient interface.
func (m *MockGitClient) CloneBranch(ctx context.Context, url, branch, dest string) error {
	ret := m.Called(ctx, url, branch, dest)
	return ret.Error(0)
}

// ListRemoteHeads implements the GitClient interface.
func (m *MockGitClient) ListRemoteHeads(ctx context.Context, url string) ([]string, error) {
	ret := m.Called(ctx, url)
	heads, _ := ret.Get(0).([]string)
	return heads, ret.Error(1)
}

// MockCompletionClient is a mock implementation of CompletionClient for testing.
type MockCompletionClient struct {
	mock.Mock
}

var _ CompletionClient = &MockCompletionClient{} // Compile-time check

// Complete implements the CompletionClient interface.
func (m *MockCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	ret := m.Called(ctx, prompt)
	return ret.String(0), ret.Error(1)
}

// MockRetriever is a mock implementation of Retriever for testing.
type MockRetriever struct {
	mock.Mock
}

var _ Retriever = &MockRetriever{} // Compile-time check

// Retrieve implements the Retriever interface.
func (m *MockRetriever) Retrieve(ctx context.Context, ref schema.RepositoryReference) (*WorkingCopy, error) {
	ret := m.Called(ctx, ref)
	wc, _ := ret.Get(0).(*WorkingCopy)
	return wc, ret.Error(1)
}

// Release implements the Retriever interface.
func (m *MockRetriever) Release(wc *WorkingCopy) error {
	ret := m.Called(wc)
	return ret.Error(0)
}

// MockAssessor is a mock implementation of Assessor for testing.
type MockAssessor struct {
	mock.Mock
}

var _ Assessor = &MockAssessor{} // Compile-time check

// Assess implements the Assessor interface.
func (m *MockAssessor) Assess(ctx context.Context, path, content string) schema.AssessmentResult {
	ret := m.Called(ctx, path, content)
	return ret.Get(0).(schema.AssessmentResult)
}

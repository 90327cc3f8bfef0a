package cmd

import (
	"path/filepath"
	"testing"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiling_WritesProfiles(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "scan")
	original := profile
	t.Cleanup(func() { profile = original })
	profile = &contract.ProfileConfig{}
	require.NoError(t, contract.ProcessProfilingConfig(profile, prefix))

	require.NoError(t, startProfiling())
	require.NoError(t, stopProfiling())

	assert.FileExists(t, prefix+".cpu.prof")
	assert.FileExists(t, prefix+".mem.prof")

	// A second stop is a no-op.
	assert.NoError(t, stopProfiling())
}

func TestProfiling_Disabled(t *testing.T) {
	original := profile
	t.Cleanup(func() { profile = original })
	profile = &contract.ProfileConfig{}

	assert.NoError(t, startProfiling())
	assert.NoError(t, stopProfiling())
}

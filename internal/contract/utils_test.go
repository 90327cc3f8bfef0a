package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/repoaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected schema.ScoreBand
	}{
		{"lowest score", 0, schema.CriticalBand},
		{"top of critical", 3, schema.CriticalBand},
		{"bottom of moderate", 4, schema.ModerateBand},
		{"top of moderate", 6, schema.ModerateBand},
		{"bottom of minor", 7, schema.MinorBand},
		{"top of minor", 8, schema.MinorBand},
		{"bottom of secure", 9, schema.SecureBand},
		{"highest score", 10, schema.SecureBand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, string(tt.expected), GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	for _, score := range []int{1, 5, 8, 10} {
		assert.Contains(t, GetColorLabel(score), GetPlainLabel(score))
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		require.NotNil(t, file)
		_ = file.Close()

		assert.FileExists(t, tempFile)
	})
}

func TestParseExcludes(t *testing.T) {
	assert.Nil(t, ParseExcludes(""))
	assert.Equal(t, []string{"*.min.js", "docs/"}, ParseExcludes(" *.min.js, ,docs/ "))
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short.go", TruncatePath("short.go", 20))
	assert.Equal(t, "...c/d.go", TruncatePath("a/b/c/d.go", 9))
	assert.Equal(t, "a/b/c/d.go", TruncatePath("a/b/c/d.go", 3))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "two words", TruncateText("two \n  words", 20))
	assert.Equal(t, "abcd...", TruncateText("abcdefghij", 7))
}

func TestDBFilePaths(t *testing.T) {
	assert.NotEqual(t, GetReportDBFilePath(), GetCacheDBFilePath())
	assert.Equal(t, ".repoaudit_reports.db", filepath.Base(GetReportDBFilePath()))
	assert.Equal(t, ".repoaudit_cache.db", filepath.Base(GetCacheDBFilePath()))
	assert.Equal(t, ".repoaudit.log", filepath.Base(GetLogFilePath()))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}

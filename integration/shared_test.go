//go:build basic || database

// Package integration contains end-to-end tests for repoaudit.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// With containers:    go test -tags database ./integration
package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	// sharedBinaryPath holds the path to a shared repoaudit binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getRepoauditBinary returns the path to the repoaudit binary, building it once if needed.
func getRepoauditBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "repoaudit-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "repoaudit")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build repoaudit: %v\n%s", err, out))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// runRepoaudit runs the binary with env layered over an isolated HOME and returns its combined output.
func runRepoaudit(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getRepoauditBinary(), args...)
	cmd.Dir = t.TempDir()

	cmd.Env = append(os.Environ(), "HOME="+t.TempDir(), "REPOAUDIT_LOG_FILENAME=-")
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", strings.Join(cmd.Args, " "), string(output))
	}
	return string(output), err
}

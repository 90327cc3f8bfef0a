package cmd

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/huangsam/repoaudit/internal/contract"
)

// profile holds profiling configuration.
var profile = &contract.ProfileConfig{}

// cpuProfile is the open CPU profile while profiling is running.
var cpuProfile *os.File

// startProfiling starts CPU profiling if enabled.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}

	cpuFile, err := os.Create(profile.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		_ = cpuFile.Close()
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}
	cpuProfile = cpuFile

	// Memory profiling will be captured at the end
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profile.Prefix, profile.Prefix)
	return err
}

// stopProfiling stops profiling and writes the memory profile.
func stopProfiling() error {
	if !profile.Enabled || cpuProfile == nil {
		return nil
	}

	pprof.StopCPUProfile()
	_ = cpuProfile.Close()
	cpuProfile = nil

	memFile, err := os.Create(profile.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profile.Prefix)
	return err
}

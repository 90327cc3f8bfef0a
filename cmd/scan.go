package cmd

import (
	"fmt"

	"github.com/huangsam/repoaudit/core"
	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// scanSetup is sharedSetup plus the assessment service check that only scans need.
// The scan flags are bound here since scan and mcp declare the same keys.
func scanSetup(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding %s flags: %w", cmd.Name(), err)
	}
	if err := sharedSetup(cmd, args); err != nil {
		return err
	}
	if err := contract.ValidateAssessorConfig(cfg.Assessor); err != nil {
		return err
	}
	if err := contract.ProcessProfilingConfig(profile, viper.GetString("profile")); err != nil {
		return fmt.Errorf("failed to process profiling config: %w", err)
	}
	return nil
}

// scanCmd audits one repository.
var scanCmd = &cobra.Command{
	Use:   "scan <repo-url>",
	Short: "Clone a repository and assess every text file for vulnerabilities.",
	Long: `Clone a Git repository into a temporary working copy and send every text
file to the configured language model for a security assessment.

Each file receives:
- A score from 1 (critical) to 10 (secure)
- A short analysis and a suggested fix
- The vulnerable lines, if any

Files are assessed concurrently. Results that were already computed for the
same content and model are served from the assessment cache. The finished
report is stored for the current user and can be reviewed later with
'repoaudit reports'.

When the requested branch does not exist, the other remote branches are tried
in turn. The working copy is always removed afterwards.

Examples:
  # Scan the main branch
  repoaudit scan https://github.com/acme/widgets.git

  # Scan another branch and skip generated files
  repoaudit scan https://github.com/acme/widgets.git --branch develop --exclude "*.min.js,vendor/"

  # Write CPU and memory profiles next to the report
  repoaudit scan https://github.com/acme/widgets.git --profile /tmp/scan

  # Export the report to CSV
  repoaudit scan https://github.com/acme/widgets.git --output csv --output-file audit.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: scanSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := startProfiling(); err != nil {
			contract.LogFatal("Cannot start profiling", err)
		}
		err := core.ExecuteScan(rootCtx, cfg, iocache.Manager)
		if stopErr := stopProfiling(); stopErr != nil {
			contract.LogWarn("Cannot write profiles", stopErr)
		}
		if err != nil {
			contract.LogFatal("Cannot run repository scan", err)
		}
	},
}

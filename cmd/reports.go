package cmd

import (
	"github.com/huangsam/repoaudit/core"
	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/internal/iocache"
	"github.com/spf13/cobra"
)

// reportsCmd groups the read-only report commands.
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Review stored audit reports",
	Long: `Review the audit reports stored by previous scans.

Reports are private to the user that created them. The user is taken from
the 'user' setting (REPOAUDIT_USER).

Subcommands:
  list - Show every report of the current user, newest first
  show - Print one report with all of its file assessments

Examples:
  # List reports
  repoaudit reports list

  # Show one report as JSON
  repoaudit reports show 5f0c6a0e-... --output json`,
}

// reportsListCmd lists the reports of the current user.
var reportsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored reports, newest first",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteListReports(rootCtx, cfg, iocache.Manager); err != nil {
			contract.LogFatal("Cannot list reports", err)
		}
	},
}

// reportsShowCmd prints one stored report.
var reportsShowCmd = &cobra.Command{
	Use:         "show <report-id>",
	Short:       "Print one stored report",
	Annotations: map[string]string{positionalAnnotation: reportIDArg},
	Args:        cobra.ExactArgs(1),
	PreRunE:     sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteShowReport(rootCtx, cfg, iocache.Manager); err != nil {
			contract.LogFatal("Cannot show report", err)
		}
	},
}

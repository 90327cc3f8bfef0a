package cmd

import (
	"github.com/huangsam/repoaudit/internal/iocache"
	"github.com/huangsam/repoaudit/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the repoaudit MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents scan repositories and
read stored reports through the scan_repository, list_reports and get_report tools.`,
	Args:    cobra.NoArgs,
	PreRunE: scanSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, iocache.Manager)
	},
}

// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/repoaudit/core"
	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Scanner audits one repository. *core.Scanner implements it.
type Scanner interface {
	Scan(ctx context.Context, ref schema.RepositoryReference) (schema.ScanResult, error)
}

// NewMCPServer initializes and configures the repoaudit MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, scanner Scanner, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Repository Audit Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		scanner: scanner,
		mgr:     mgr,
	}

	// --- 1. Tool: scan_repository ---
	s.AddTool(mcp.NewTool("scan_repository",
		mcp.WithDescription("Clone a Git repository and assess every text file for security vulnerabilities. Returns the report with one scored assessment per file."),
		mcp.WithString("repo_url", mcp.Description("URL of the Git repository to scan."), mcp.Required()),
		mcp.WithString("branch", mcp.Description("Branch to scan. Defaults to 'main'; other remote branches are tried when it does not exist.")),
	), h.handleScanRepository)

	// --- 2. Tool: list_reports ---
	s.AddTool(mcp.NewTool("list_reports",
		mcp.WithDescription("List the stored audit reports of the current user, newest first."),
	), h.handleListReports)

	// --- 3. Tool: get_report ---
	s.AddTool(mcp.NewTool("get_report",
		mcp.WithDescription("Fetch one stored audit report with all of its file assessments."),
		mcp.WithString("report_id", mcp.Description("Identifier returned by scan_repository or list_reports."), mcp.Required()),
	), h.handleGetReport)

	return s
}

// StartMCPServer starts the repoaudit MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	scanner, err := core.NewScannerFromConfig(baseCfg, mgr)
	if err != nil {
		return err
	}
	s := NewMCPServer(baseCfg, scanner, mgr)
	return server.ServeStdio(s)
}

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/internal/outwriter"
	"github.com/huangsam/repoaudit/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	scanner Scanner
	mgr     contract.StoreManager
}

// authenticate runs the identity stage for a tool call.
func (h *toolHandler) authenticate(ctx context.Context) (context.Context, error) {
	return contract.Authenticate(ctx, h.baseCfg.UserID)
}

func (h *toolHandler) reportStore() (contract.ReportStore, error) {
	if h.mgr != nil {
		if store := h.mgr.GetReportStore(); store != nil {
			return store, nil
		}
	}
	return nil, errors.New("report store is not initialized")
}

func (h *toolHandler) handleScanRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := schema.RepositoryReference{
		URL:    strings.TrimSpace(request.GetString("repo_url", "")),
		Branch: strings.TrimSpace(request.GetString("branch", "")),
	}
	if ref.Branch == "" {
		ref.Branch = h.baseCfg.Branch
	}
	if err := contract.ValidateRepositoryURL(ref.URL); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid scan parameters: %v", err)), nil
	}

	ctx, err := h.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("authentication failed: %v", err)), nil
	}
	if h.baseCfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.baseCfg.ScanTimeout)
		defer cancel()
	}

	result, err := h.scanner.Scan(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}

	var buf bytes.Buffer
	if err := outwriter.WriteScanJSON(&buf, result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (h *toolHandler) handleListReports(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, err := h.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("authentication failed: %v", err)), nil
	}
	userID, _ := contract.UserIDFrom(ctx)

	store, err := h.reportStore()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summaries, err := store.ListReports(userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing reports failed: %v", err)), nil
	}
	if summaries == nil {
		summaries = []schema.ReportSummary{}
	}

	return jsonResult(summaries), nil
}

func (h *toolHandler) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reportID := strings.TrimSpace(request.GetString("report_id", ""))
	if reportID == "" {
		return mcp.NewToolResultError("report_id is required"), nil
	}

	ctx, err := h.authenticate(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("authentication failed: %v", err)), nil
	}
	userID, _ := contract.UserIDFrom(ctx)

	store, err := h.reportStore()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := store.GetReport(userID, reportID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report %s: %v", reportID, err)), nil
	}

	return jsonResult(report), nil
}

// jsonResult renders v as indented JSON, or a tool error when it cannot be encoded.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result failed: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

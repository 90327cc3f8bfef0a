// Package assessor obtains a security assessment of a single file from the
// external completion service and normalizes the reply.
package assessor

import (
	"context"
	"log/slog"
	"time"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"
)

// Assessor is a total function from a file to an AssessmentResult. Any
// failure of the service or of the reply yields schema.FallbackResult.
type Assessor struct {
	client  contract.CompletionClient
	timeout time.Duration
}

var _ contract.Assessor = &Assessor{} // Compile-time check

// New creates an Assessor. A non-positive timeout disables the per-request deadline.
func New(client contract.CompletionClient, timeout time.Duration) *Assessor {
	return &Assessor{client: client, timeout: timeout}
}

// Assess implements the contract.Assessor interface.
func (a *Assessor) Assess(ctx context.Context, path, content string) schema.AssessmentResult {
	if err := ctx.Err(); err != nil {
		return schema.FallbackResult(path)
	}

	reqCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	payload, err := a.client.Complete(reqCtx, BuildPrompt(path, content))
	if err != nil {
		slog.Warn("assessment request failed", "path", path, "error", err)
		return schema.FallbackResult(path)
	}

	result, err := ParseResponse(path, payload)
	if err != nil {
		slog.Warn("assessment reply rejected", "path", path, "error", err)
		return schema.FallbackResult(path)
	}
	return result
}

// Package tools implements the MCP tool handlers for document
// generation and resource analysis.
//
// Each file holds one tool. Tools receive their collaborators through
// constructors and never reach into globals; error conditions caused
// by the caller come back as tool-result errors, while internal
// failures return Go errors so the MCP layer can report them.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/quill/internal/analyzer"
	"github.com/HendryAvila/quill/internal/docgen"
	"github.com/HendryAvila/quill/internal/limits"
	"github.com/HendryAvila/quill/internal/sanitize"
	"github.com/mark3labs/mcp-go/mcp"
)

// runAnalysis runs the analyzer and records the run in the statistics,
// translating the admission-refused case into a caller-facing message.
func runAnalysis(ctx context.Context, a *analyzer.Analyzer, svc *docgen.Service) (*analyzer.AnalysisResult, *mcp.CallToolResult, error) {
	res, err := a.Analyze(ctx)
	if err != nil {
		var rerr *limits.RateLimitError
		if errors.As(err, &rerr) {
			return nil, mcp.NewToolResultError(rerr.Error() + "; retry shortly"), nil
		}
		return nil, nil, fmt.Errorf("analyzing resources: %w", err)
	}
	svc.RecordAnalysis()
	return res, nil, nil
}

// generationErrorResult maps generation failures onto tool results. A
// sanitizer rejection is the caller's problem, not a server fault.
func generationErrorResult(err error) (*mcp.CallToolResult, error) {
	var (
		injErr  *sanitize.InjectionError
		longErr *sanitize.TooLongError
	)
	if errors.As(err, &injErr) || errors.As(err, &longErr) {
		return mcp.NewToolResultError("input rejected: " + err.Error()), nil
	}
	return mcp.NewToolResultError(err.Error()), nil
}

// analysisSummary renders a short human-readable digest of a run.
func analysisSummary(res *analyzer.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed %d files: %d accepted, %d rejected.\n", res.TotalSeen, res.TotalAccepted, len(res.Rejected))
	if len(res.Categories) > 0 {
		b.WriteString("\nCategories:\n")
		for _, c := range res.Categories {
			fmt.Fprintf(&b, "- %s (%d files)\n", c.Name, len(c.Files))
		}
	}
	if len(res.Rejected) > 0 {
		b.WriteString("\nRejected:\n")
		for _, r := range res.Rejected {
			fmt.Fprintf(&b, "- %s: %s\n", r.Path, r.Reason)
		}
	}
	return b.String()
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/quill/internal/docgen"
	"github.com/HendryAvila/quill/internal/seclog"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatisticsTool handles the get_generation_statistics MCP tool.
type StatisticsTool struct {
	service *docgen.Service
	audit   *seclog.Store
}

// NewStatisticsTool creates the tool. audit may be nil when the audit
// store is disabled; recent events are then omitted.
func NewStatisticsTool(service *docgen.Service, audit *seclog.Store) *StatisticsTool {
	return &StatisticsTool{service: service, audit: audit}
}

// Definition returns the MCP tool definition for registration.
func (t *StatisticsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_generation_statistics",
		mcp.WithDescription(
			"Report document generation counters for this server instance, plus the "+
				"most recent security events from the audit log when it is enabled.",
		),
		mcp.WithNumber("recent_events",
			mcp.Description("How many recent security events to include. Default 10, max 100."),
		),
	)
}

// Handle processes the get_generation_statistics tool call.
func (t *StatisticsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := t.service.Statistics()
	raw, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding statistics: %w", err)
	}

	out := "# Generation Statistics\n\n```json\n" + string(raw) + "\n```\n"

	if t.audit != nil {
		limit := req.GetInt("recent_events", 10)
		if limit > 100 {
			limit = 100
		}
		events, err := t.audit.Recent(limit)
		if err == nil && len(events) > 0 {
			out += "\n## Recent Security Events\n\n"
			for _, e := range events {
				out += fmt.Sprintf("- `%s` [%s] %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Severity, e.Type)
			}
		}
	}
	return mcp.NewToolResultText(out), nil
}

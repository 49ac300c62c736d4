package mcpadapter

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/ports"
)

const (
	serverName    = "ad-autonamer"
	serverVersion = "1.0.0"
)

// Server exposes review operations as MCP tools. Every tool takes a session_id;
// mutating tools accept an optional if_match version.
type Server struct {
	reader   ports.SessionReader
	reviewer ports.SessionReviewer
	exporter ports.SessionExporter
}

func NewServer(reader ports.SessionReader, reviewer ports.SessionReviewer, exporter ports.SessionExporter) *Server {
	return &Server{
		reader:   reader,
		reviewer: reviewer,
		exporter: exporter,
	}
}

func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	srv.AddTool(mcp.NewTool("get_groups",
		mcp.WithDescription("Read the current groups, filenames, duplicates and confidence triage of a review session."),
		sessionParam(),
	), s.getGroups)

	srv.AddTool(mcp.NewTool("update_fields",
		mcp.WithDescription("Set editable fields (product, angle, hook, creator, offer, campaign, date, copy fields) on one group."),
		sessionParam(),
		ifMatchParam(),
		mcp.WithString("group_id", mcp.Required(), mcp.Description("Group to edit.")),
		mcp.WithObject("fields", mcp.Required(), mcp.Description("Field name to new value.")),
	), s.updateFields)

	srv.AddTool(mcp.NewTool("regroup",
		mcp.WithDescription("Move an asset to another group, or to the ungrouped pool when target_group_id is empty."),
		sessionParam(),
		ifMatchParam(),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset to move.")),
		mcp.WithString("target_group_id", mcp.Description("Destination group; empty sends the asset to the pool.")),
		mcp.WithNumber("destination_index", mcp.Description("Position inside the destination group; defaults to the end.")),
	), s.regroup)

	srv.AddTool(mcp.NewTool("create_group",
		mcp.WithDescription("Start a new single group from one asset."),
		sessionParam(),
		ifMatchParam(),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset that seeds the group.")),
	), s.createGroup)

	srv.AddTool(mcp.NewTool("reorder",
		mcp.WithDescription("Change an asset's position inside its group."),
		sessionParam(),
		ifMatchParam(),
		mcp.WithString("group_id", mcp.Required(), mcp.Description("Group holding the asset.")),
		mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset to move.")),
		mcp.WithNumber("new_index", mcp.Required(), mcp.Description("Target position; clamped to the group bounds.")),
	), s.reorder)

	srv.AddTool(mcp.NewTool("renumber",
		mcp.WithDescription("Reassign ad numbers sequentially in display order."),
		sessionParam(),
		ifMatchParam(),
		mcp.WithNumber("start_number", mcp.Required(), mcp.Description("Number given to the first group.")),
	), s.renumber)

	srv.AddTool(mcp.NewTool("bulk_replace",
		mcp.WithDescription("Replace a field value in every group whose value equals find exactly."),
		sessionParam(),
		ifMatchParam(),
		mcp.WithString("field", mcp.Required(), mcp.Description("Editable field name.")),
		mcp.WithString("find", mcp.Required(), mcp.Description("Exact current value to match.")),
		mcp.WithString("replace", mcp.Required(), mcp.Description("New value.")),
	), s.bulkReplace)

	srv.AddTool(mcp.NewTool("bulk_apply",
		mcp.WithDescription("Set one field to one value across the listed groups. Fails without changes if any id is unknown."),
		sessionParam(),
		ifMatchParam(),
		mcp.WithArray("group_ids", mcp.Required(), mcp.WithStringItems(), mcp.Description("Groups to update.")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Editable field name.")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value.")),
	), s.bulkApply)

	srv.AddTool(mcp.NewTool("export_rows",
		mcp.WithDescription("Return the flattened export view: one row per asset with its generated filename and confidence."),
		sessionParam(),
	), s.exportRows)

	return srv
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.MCPServer())
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Review session id."))
}

func ifMatchParam() mcp.ToolOption {
	return mcp.WithNumber("if_match", mcp.Description("Snapshot version last seen; the call fails on mismatch. 0 or absent skips the check."))
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// errorResult reports domain failures to the model as tool errors rather than
// protocol errors, prefixed with a stable kind.
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", errorKind(err), err))
}

func errorKind(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrNotFound):
		return "not_found"
	case domain.IsKind(err, domain.ErrConflict):
		return "conflict"
	case domain.IsKind(err, domain.ErrInvalidOperation):
		return "invalid_operation"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	default:
		return "internal"
	}
}

func argumentError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("invalid_input: %v", err))
}


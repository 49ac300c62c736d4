package mcpadapter

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/store"
)

type mutation func(ctx context.Context, sessionID string, ifMatch int64) (store.ReadModel, error)

// runMutation resolves the shared arguments, applies the mutation and renders
// the read model.
func (s *Server) runMutation(ctx context.Context, req mcp.CallToolRequest, apply mutation) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return argumentError(err), nil
	}
	ifMatch := int64(req.GetInt("if_match", 0))
	rm, err := apply(ctx, sessionID, ifMatch)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(rm)
}

func (s *Server) getGroups(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return argumentError(err), nil
	}
	rm, err := s.reader.Read(ctx, sessionID)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(rm)
}

func (s *Server) updateFields(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groupID, err := req.RequireString("group_id")
	if err != nil {
		return argumentError(err), nil
	}
	raw, ok := req.GetArguments()["fields"].(map[string]any)
	if !ok {
		return argumentError(fmt.Errorf("fields must be an object")), nil
	}
	patch, err := domain.FieldPatchFromMap(raw)
	if err != nil {
		return errorResult(err), nil
	}
	return s.runMutation(ctx, req, func(ctx context.Context, sessionID string, ifMatch int64) (store.ReadModel, error) {
		return s.reviewer.UpdateFields(ctx, sessionID, ifMatch, groupID, patch)
	})
}

func (s *Server) regroup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assetID, err := req.RequireString("asset_id")
	if err != nil {
		return argumentError(err), nil
	}
	target := req.GetString("target_group_id", "")
	var destIndex *int
	if _, ok := req.GetArguments()["destination_index"]; ok {
		idx := req.GetInt("destination_index", 0)
		destIndex = &idx
	}
	return s.runMutation(ctx, req, func(ctx context.Context, sessionID string, ifMatch int64) (store.ReadModel, error) {
		return s.reviewer.Regroup(ctx, sessionID, ifMatch, assetID, target, destIndex)
	})
}

func (s *Server) createGroup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assetID, err := req.RequireString("asset_id")
	if err != nil {
		return argumentError(err), nil
	}
	return s.runMutation(ctx, req, func(ctx context.Context, sessionID string, ifMatch int64) (store.ReadModel, error) {
		return s.reviewer.CreateGroup(ctx, sessionID, ifMatch, assetID)
	})
}

func (s *Server) reorder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groupID, err := req.RequireString("group_id")
	if err != nil {
		return argumentError(err), nil
	}
	assetID, err := req.RequireString("asset_id")
	if err != nil {
		return argumentError(err), nil
	}
	newIndex, err := req.RequireInt("new_index")
	if err != nil {
		return argumentError(err), nil
	}
	return s.runMutation(ctx, req, func(ctx context.Context, sessionID string, ifMatch int64) (store.ReadModel, error) {
		return s.reviewer.Reorder(ctx, sessionID, ifMatch, groupID, assetID, newIndex)
	})
}

func (s *Server) renumber(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, err := req.RequireInt("start_number")
	if err != nil {
		return argumentError(err), nil
	}
	return s.runMutation(ctx, req, func(ctx context.Context, sessionID string, ifMatch int64) (store.ReadModel, error) {
		return s.reviewer.Renumber(ctx, sessionID, ifMatch, start)
	})
}

func (s *Server) bulkReplace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := req.RequireString("field")
	if err != nil {
		return argumentError(err), nil
	}
	find, err := req.RequireString("find")
	if err != nil {
		return argumentError(err), nil
	}
	replace, err := req.RequireString("replace")
	if err != nil {
		return argumentError(err), nil
	}
	return s.runMutation(ctx, req, func(ctx context.Context, sessionID string, ifMatch int64) (store.ReadModel, error) {
		return s.reviewer.BulkReplace(ctx, sessionID, ifMatch, field, find, replace)
	})
}

func (s *Server) bulkApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groupIDs, err := req.RequireStringSlice("group_ids")
	if err != nil {
		return argumentError(err), nil
	}
	field, err := req.RequireString("field")
	if err != nil {
		return argumentError(err), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return argumentError(err), nil
	}
	return s.runMutation(ctx, req, func(ctx context.Context, sessionID string, ifMatch int64) (store.ReadModel, error) {
		return s.reviewer.BulkApply(ctx, sessionID, ifMatch, groupIDs, field, value)
	})
}

func (s *Server) exportRows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return argumentError(err), nil
	}
	rows, err := s.exporter.Rows(ctx, sessionID)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]any{
		"session_id": sessionID,
		"rows":       rows,
	})
}

package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

var (
	lookupToolName    = "memory_lookup"
	lookupDescription = "Ask where stored items are, or what is stored at a location. Examples: 'where are my keys?', 'what did I keep in the garage?'."
)

// LookupInput represents the input arguments for the memory_lookup tool.
type LookupInput struct {
	UserID int64  `json:"user_id" jsonschema:"the owner of the memories"`
	Text   string `json:"text" jsonschema:"the natural-language question to answer"`
}

// LookupOutput represents the output of the memory_lookup tool.
type LookupOutput struct {
	Answer   string `json:"answer"`
	Resolved bool   `json:"resolved"`
}

// handleLookup processes a lookup request.
func (s *Server) handleLookup(ctx context.Context, req *mcp.CallToolRequest, input LookupInput) (*mcp.CallToolResult, LookupOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP lookup request",
		zap.Int64("user_id", input.UserID),
	)

	if input.UserID <= 0 || input.Text == "" {
		return toolError("user_id and text are required"), LookupOutput{}, nil
	}

	result, err := s.config.Service.Retrieve(ctx, input.UserID, input.Text)
	if err != nil {
		logger.Warn("MCP lookup failed", zap.Error(err))
		return toolError(fmt.Sprintf("Lookup failed: %v", err)), LookupOutput{}, nil
	}

	return nil, LookupOutput{
		Answer:   result.Answer,
		Resolved: result.Resolved,
	}, nil
}

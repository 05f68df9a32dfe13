package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/packratco/packrat/pkg/memory"
)

var (
	saveToolName    = "memory_save"
	saveDescription = "Save where an item was put, or forget stored items or locations, from one natural-language statement. Examples: 'I put my passport in the desk drawer', 'forget my keys'."
)

// SaveInput represents the input arguments for the memory_save tool.
type SaveInput struct {
	UserID int64  `json:"user_id" jsonschema:"the owner of the memories"`
	Text   string `json:"text" jsonschema:"the natural-language statement to process"`
}

// SaveOutput represents the output of the memory_save tool.
type SaveOutput struct {
	Message        string             `json:"message"`
	Items          []memory.SavedItem `json:"items,omitempty"`
	DeletedFactIDs []string           `json:"deleted_fact_ids,omitempty"`
}

// handleSave processes a save request.
func (s *Server) handleSave(ctx context.Context, req *mcp.CallToolRequest, input SaveInput) (*mcp.CallToolResult, SaveOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP save request",
		zap.Int64("user_id", input.UserID),
	)

	if input.UserID <= 0 || input.Text == "" {
		return toolError("user_id and text are required"), SaveOutput{}, nil
	}

	result, err := s.config.Service.Save(ctx, input.UserID, input.Text)
	if err != nil {
		logger.Warn("MCP save failed", zap.Error(err))
		return toolError(fmt.Sprintf("Save failed: %v", err)), SaveOutput{}, nil
	}

	return nil, SaveOutput{
		Message:        result.Message,
		Items:          result.Items,
		DeletedFactIDs: result.DeletedFactIDs,
	}, nil
}

func toolError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

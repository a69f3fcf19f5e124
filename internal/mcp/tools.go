package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/phraseclip/internal/loader"
	"github.com/dshills/phraseclip/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound       = -32001 // No phrase with the requested id
	ErrorCodeLoadInProgress = -32002 // Another load is already running
	ErrorCodeEmptyQuery     = -32004 // Query parameter is empty
)

// handleSearchPhrases handles the search_phrases tool invocation
func (s *Server) handleSearchPhrases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	resp, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// A short query is a normal answer, not a protocol error
	if resp.TooShort {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"results": resp.Results,
			"message": resp.Message,
		})), nil
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"results": resp.Results,
		"count":   resp.Count,
		"query":   resp.Query,
	})), nil
}

// handleGetPhrase handles the get_phrase tool invocation
func (s *Server) handleGetPhrase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, err := getInt64(args, "id")
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter must be an integer", map[string]interface{}{
			"param":  "id",
			"reason": err.Error(),
		})
	}

	phrase, err := s.index.GetByID(ctx, id)
	if errors.Is(err, types.ErrPhraseNotFound) {
		return nil, newMCPError(ErrorCodeNotFound, "Clip not found", map[string]interface{}{
			"id": id,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get phrase", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"id":              phrase.ID,
		"text":            phrase.Text,
		"text_normalized": phrase.TextNormalized,
		"start_time":      phrase.StartTime,
		"end_time":        phrase.EndTime,
		"clip_filename":   phrase.ClipFilename,
		"clip_duration":   phrase.ClipDuration,
		"created_at":      phrase.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})), nil
}

// handleGetStats handles the get_stats tool invocation
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get stats", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"total_phrases":  stats.TotalPhrases,
		"total_duration": stats.TotalDuration,
	})), nil
}

// handleLoadManifest handles the load_manifest tool invocation
func (s *Server) handleLoadManifest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validateManifestPath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	rebuild := getBoolDefault(args, "rebuild", false)

	stats, err := s.loader.Load(ctx, path, rebuild)
	if errors.Is(err, loader.ErrLoadInProgress) {
		return nil, newMCPError(ErrorCodeLoadInProgress, "another load is already running", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "load failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"loaded":           true,
		"rebuilt":          stats.Rebuilt,
		"phrases_inserted": stats.PhrasesInserted,
		"total_phrases":    stats.TotalPhrases,
		"total_duration":   stats.TotalDuration,
		"duration_ms":      stats.Duration.Milliseconds(),
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateManifestPath checks that path names a readable regular file
func validateManifestPath(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if info.IsDir() {
		return ErrIsDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getInt64 extracts a required integer parameter. JSON numbers arrive as
// float64, so fractional values are rejected explicitly.
func getInt64(args map[string]interface{}, key string) (int64, error) {
	switch val := args[key].(type) {
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("%v is not a whole number", val)
		}
		return int64(val), nil
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case nil:
		return 0, errors.New("missing")
	default:
		return 0, fmt.Errorf("unexpected type %T", val)
	}
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrIsDirectory     = errors.New("path is a directory")
)

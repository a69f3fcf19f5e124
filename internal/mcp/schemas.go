package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchPhrasesTool returns the tool definition for search_phrases
func searchPhrasesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_phrases",
		Description: "Find subtitle phrases containing the query, ignoring case and sentence punctuation",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Text to look for (at least 2 characters)",
					"minLength":   2,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getPhraseTool returns the tool definition for get_phrase
func getPhraseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_phrase",
		Description: "Fetch the full record of one phrase, including its clip file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "Phrase id as returned by search_phrases",
					"minimum":     1,
				},
			},
			Required: []string{"id"},
		},
	}
}

// getStatsTool returns the tool definition for get_stats
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Count indexed phrases and their total clip duration in seconds",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// loadManifestTool returns the tool definition for load_manifest
func loadManifestTool() mcp.Tool {
	return mcp.Tool{
		Name:        "load_manifest",
		Description: "Import a clips-metadata.json manifest into the phrase index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the manifest file",
				},
				"rebuild": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, replace the whole corpus instead of appending",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexMenuTool returns the tool definition for index_menu
func indexMenuTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_menu",
		Description: "Load a restaurant menu file and build the search index, replacing any previous index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a menu file (.json, .yaml or .yml)",
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchMenuTool returns the tool definition for search_menu
func searchMenuTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_menu",
		Description: "Search the indexed menu with natural language (e.g. 'something spicy', 'healthy vegetarian lunch')",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100). Omit to return every match",
					"minimum":     1,
					"maximum":     100,
				},
				"search_mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: hybrid (vector + keyword with context blending), vector (semantic only), or keyword (lexical only)",
					"enum":        []string{"hybrid", "vector", "keyword"},
					"default":     "hybrid",
				},
				"categories": map[string]interface{}{
					"type":        "array",
					"description": "Restrict results to categories matching these glob patterns (case-insensitive, e.g. 'dess*')",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report the index lifecycle state and statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// cleanupIndexTool returns the tool definition for cleanup_index
func cleanupIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "cleanup_index",
		Description: "Drop the in-memory index and delete the persisted snapshot for this instance",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

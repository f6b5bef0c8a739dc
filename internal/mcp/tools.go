package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/menusearch-mcp/internal/indexer"
	"github.com/dshills/menusearch-mcp/internal/menu"
	"github.com/dshills/menusearch-mcp/internal/searcher"
	"github.com/dshills/menusearch-mcp/internal/service"
	"github.com/dshills/menusearch-mcp/internal/storage"
	"github.com/dshills/menusearch-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // No index is ready
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

const (
	maxLimit = 100
)

// handleIndexMenu handles the index_menu tool invocation
func (s *Server) handleIndexMenu(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	m, err := menu.Load(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "failed to load menu", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	if err := s.service.InitializeIndex(ctx, m); err != nil {
		switch {
		case errors.Is(err, service.ErrIndexingInProgress):
			return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
		case errors.Is(err, indexer.ErrInvalidMenu):
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid menu", map[string]interface{}{
				"error": err.Error(),
			})
		default:
			return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	status := s.service.Status()
	response := map[string]interface{}{
		"indexed":     true,
		"instance_id": status.InstanceID,
		"item_count":  status.ItemCount,
	}

	if stats := status.LastBuild; stats != nil {
		response["items_total"] = stats.ItemsTotal
		response["items_indexed"] = stats.ItemsIndexed
		response["items_skipped"] = stats.ItemsSkipped
		response["duplicates"] = stats.Duplicates
		response["duration_ms"] = stats.Duration.Milliseconds()
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchMenu handles the search_menu tool invocation
func (s *Server) handleSearchMenu(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 0)
	if _, set := args["limit"]; set && (limit < 1 || limit > maxLimit) {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	searchMode := getStringDefault(args, "search_mode", string(searcher.SearchModeHybrid))
	switch searcher.SearchMode(searchMode) {
	case searcher.SearchModeHybrid, searcher.SearchModeVector, searcher.SearchModeKeyword:
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   searchMode,
			"allowed": []string{"hybrid", "vector", "keyword"},
		})
	}

	categories, err := getStringSlice(args, "categories")
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid categories", map[string]interface{}{
			"param":  "categories",
			"reason": err.Error(),
		})
	}

	resp, err := s.service.SearchWith(ctx, searcher.SearchRequest{
		Query:      query,
		Limit:      limit,
		Mode:       searcher.SearchMode(searchMode),
		Categories: categories,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotReady):
			return nil, newMCPError(ErrorCodeNotIndexed, "menu not indexed. Use index_menu tool first", map[string]interface{}{
				"state": string(s.service.State()),
			})
		case errors.Is(err, searcher.ErrInvalidCategoryPattern):
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid categories", map[string]interface{}{
				"param":  "categories",
				"reason": err.Error(),
			})
		default:
			return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return mcp.NewToolResultText(formatJSON(searchResponseJSON(resp))), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.service.Status()

	response := map[string]interface{}{
		"instance_id": status.InstanceID,
		"state":       string(status.State),
		"indexed":     status.State == service.StateReady,
		"item_count":  status.ItemCount,
		"restored":    status.Restored,
	}
	if status.Err != nil {
		response["error"] = status.Err.Error()
	}
	if status.State == service.StateLoading {
		response["progress"] = map[string]interface{}{
			"done":    status.Progress.Done,
			"total":   status.Progress.Total,
			"percent": status.Progress.Percent(),
		}
	}
	if !status.BuiltAt.IsZero() {
		response["built_at"] = status.BuiltAt.Format(time.RFC3339)
	}
	if stats := status.LastBuild; stats != nil {
		response["last_build"] = map[string]interface{}{
			"items_total":   stats.ItemsTotal,
			"items_indexed": stats.ItemsIndexed,
			"items_skipped": stats.ItemsSkipped,
			"duplicates":    stats.Duplicates,
			"duration_ms":   stats.Duration.Milliseconds(),
		}
	}

	if s.storage != nil {
		persisted, err := s.storage.GetStatus(ctx, status.InstanceID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			response["persisted"] = map[string]interface{}{"available": false}
		case err != nil:
			return nil, newMCPError(ErrorCodeInternalError, "failed to get persisted index status", map[string]interface{}{
				"error": err.Error(),
			})
		default:
			response["persisted"] = map[string]interface{}{
				"available":     true,
				"items_count":   persisted.ItemsCount,
				"dimension":     persisted.Info.Dimension,
				"provider":      persisted.Info.Provider,
				"model":         persisted.Info.Model,
				"built_at":      persisted.Info.BuiltAt.Format(time.RFC3339),
				"index_size_mb": fmt.Sprintf("%.2f", persisted.IndexSizeMB),
				"health": map[string]interface{}{
					"database_accessible": persisted.Health.DatabaseAccessible,
					"vectors_available":   persisted.Health.VectorsAvailable,
				},
			}
		}

		instances, err := s.storage.ListIndexes(ctx)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to list persisted indexes", map[string]interface{}{
				"error": err.Error(),
			})
		}
		response["instances"] = instancesJSON(instances, status.InstanceID)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCleanupIndex handles the cleanup_index tool
func (s *Server) handleCleanupIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.service.State() == service.StateLoading {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "cannot clean up while indexing is in progress", nil)
	}

	if err := s.service.Cleanup(ctx); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "cleanup failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"cleaned":     true,
		"instance_id": s.service.InstanceID(),
		"state":       string(s.service.State()),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// instancesJSON lists every persisted index, most recently built first
func instancesJSON(infos []*storage.IndexInfo, current string) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(infos))
	for _, info := range infos {
		out = append(out, map[string]interface{}{
			"instance_id": info.InstanceID,
			"item_count":  info.ItemCount,
			"built_at":    info.BuiltAt.Format(time.RFC3339),
			"current":     info.InstanceID == current,
		})
	}
	return out
}

// searchResponseJSON shapes a response for tool output. Categories keep
// the order of their best-ranked item.
func searchResponseJSON(resp *searcher.SearchResponse) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(resp.Results))
	for i, r := range resp.Results {
		results = append(results, resultJSON(i+1, r))
	}

	grouped := make([]map[string]interface{}, 0, len(resp.Grouped))
	for _, category := range resp.Grouped.Categories(resp.Results) {
		items := resp.Grouped[category]
		ids := make([]string, 0, len(items))
		for _, r := range items {
			ids = append(ids, r.Item.ID)
		}
		grouped = append(grouped, map[string]interface{}{
			"category": category,
			"item_ids": ids,
		})
	}

	return map[string]interface{}{
		"results":       results,
		"grouped":       grouped,
		"total_results": resp.TotalResults,
		"search_mode":   string(resp.SearchMode),
		"cache_hit":     resp.CacheHit,
		"duration_ms":   resp.Duration.Milliseconds(),
	}
}

func resultJSON(rank int, r types.SearchResult) map[string]interface{} {
	item := r.Item
	out := map[string]interface{}{
		"rank":       rank,
		"similarity": r.Similarity,
		"id":         item.ID,
		"name":       item.Name,
		"category":   item.Category,
		"price":      float64(item.Price),
		"dietary": map[string]interface{}{
			"vegetarian":  item.Dietary.IsVegetarian,
			"vegan":       item.Dietary.IsVegan,
			"gluten_free": item.Dietary.IsGlutenFree,
		},
	}
	if item.Description != "" {
		out["description"] = item.Description
	}
	if item.SubCategory != "" {
		out["sub_category"] = item.SubCategory
	}
	if len(item.Ingredients) > 0 {
		out["ingredients"] = item.Ingredients
	}
	if len(item.Allergens) > 0 {
		out["allergens"] = item.Allergens
	}
	if item.Calories != nil {
		out["calories"] = *item.Calories
	}
	return out
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

// validatePath checks that path is an absolute, readable menu file
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

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
		return ErrNotFile
	}

	if _, err := menu.DetectFormat(path); err != nil {
		return err
	}

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

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts an optional array of strings
func getStringSlice(args map[string]interface{}, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for i, elem := range v {
			str, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("element %d is not a string", i)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotFile         = errors.New("path is a directory, not a menu file")
)

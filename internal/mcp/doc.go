// Package mcp implements the Model Context Protocol (MCP) server for menusearch.
//
// The MCP server exposes four tools to assistants:
//   - index_menu: Load a menu file and build the search index
//   - search_menu: Search the indexed menu with natural language queries
//   - get_status: Check index state and statistics
//   - cleanup_index: Drop the index and its persisted snapshot
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	menusearch serve --menu /srv/menus/dinner.json --watch
//
// # Tool: index_menu
//
//	Request:
//	{
//	  "name": "index_menu",
//	  "arguments": {"path": "/srv/menus/dinner.json"}
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "instance_id": "default",
//	  "item_count": 42,
//	  "items_total": 43,
//	  "items_indexed": 42,
//	  "items_skipped": 1,
//	  "duplicates": 0,
//	  "duration_ms": 12
//	}
//
// # Tool: search_menu
//
//	Request:
//	{
//	  "name": "search_menu",
//	  "arguments": {
//	    "query": "something spicy",
//	    "limit": 5,
//	    "search_mode": "hybrid",
//	    "categories": ["main*", "appetizers"]
//	  }
//	}
//
//	Response:
//	{
//	  "results": [
//	    {"rank": 1, "similarity": 0.93, "id": "12", "name": "Buffalo Wings", "category": "Appetizers", ...}
//	  ],
//	  "grouped": [
//	    {"category": "Appetizers", "item_ids": ["12"]}
//	  ],
//	  "total_results": 7,
//	  "search_mode": "hybrid"
//	}
//
// Similarity is a relative ranking score, not a bounded cosine value.
//
// # Tool: get_status
//
// Reports lifecycle state (uninitialized, loading, ready, error), build
// progress while loading, the last build's statistics and, when storage
// is configured, the persisted snapshot and every persisted instance.
//
// # Tool: cleanup_index
//
// Drops the in-memory index, deletes this instance's persisted snapshot
// and returns the service to uninitialized. Rejected while indexing.
//
//	Response:
//	{"cleaned": true, "instance_id": "default", "state": "uninitialized"}
//
// # Error Codes
//
//	-32602  Invalid parameters (bad path, malformed menu, bad limit or mode)
//	-32603  Internal error
//	-32002  Indexing already in progress
//	-32003  Menu not indexed
//	-32004  Empty query
package mcp

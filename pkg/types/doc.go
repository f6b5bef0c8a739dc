// Package types provides shared type definitions for menusearch.
//
// # Core Types
//
// MenuItem is a single dish as supplied by the caller. Only ID, Name and
// Category are required for indexing; everything else is optional:
//
//	item := types.MenuItem{
//	    ID:          "12",
//	    Name:        "Buffalo Wings",
//	    Description: "Spicy chicken wings with hot sauce",
//	    Category:    "Appetizers",
//	    Price:       11.5,
//	    Ingredients: []string{"chicken", "hot sauce"},
//	}
//
// Price decodes from JSON or YAML numbers as well as numeric strings such
// as "$8.50". Anything else decodes to 0 rather than failing the menu.
//
// Calories is a pointer so that unknown calories are distinguishable from
// zero.
//
// # Search Results
//
// SearchResult pairs an item with its relative ranking score. Scores merge
// vector similarity, lexical matches and boosts, so they are only
// comparable within one response and may exceed 1.
//
// GroupedResults buckets an ordered result list by each item's own
// category; items without a category land in DefaultCategory.
package types

// Package config loads menusearch settings.
//
// Values are layered: built-in defaults, then .menusearch/config.yml, then
// MENUSEARCH_* environment variables. Nested keys map to env names by
// replacing dots with underscores, so search.top_k becomes
// MENUSEARCH_SEARCH_TOP_K.
package config

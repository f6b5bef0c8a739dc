// Package menu reads menu files and watches them for changes.
package menu

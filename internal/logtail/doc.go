// Package logtail reads the end of scoop's JSON log file and renders it for
// the log pane.
//
// Read keeps a ring buffer of the last N lines so large files are never held
// in memory. Format turns each zerolog JSON record into the compact console
// form used on screen, and Level lets the UI pick a color for it.
package logtail

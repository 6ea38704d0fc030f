package ui

import "time"

const (
	// LogTailLines is how many lines of the log file the pane keeps.
	LogTailLines = 500

	// LogPaneMinHeight is the smallest log pane, title included.
	LogPaneMinHeight = 6

	// DefaultUIInterval is how often the UI re-reads the synchronizer.
	DefaultUIInterval = time.Second
)

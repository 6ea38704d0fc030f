// Package app is the composition root for scoop.
//
// Run loads configuration, opens the log file, builds the Prometheus
// registry, the remote store client and the collection synchronizer, and then
// hands control to the terminal UI until the user quits.
//
// # Startup order
//
//  1. config.Load reads ~/.config/scoop/config.toml (defaults when missing)
//  2. logging.New opens the JSON log file; the terminal belongs to the UI
//  3. prefs.Load restores theme and last identity
//  4. metrics.NewCollector registers counters; served only when metrics_addr is set
//  5. remote.NewClient and state.New build the synchronizer
//  6. StartRefresher reloads on refresh_interval while someone is signed in
//  7. ui.Run blocks
//
// Errors before the UI starts are returned. After that nothing is fatal: load
// and mutation failures surface as notices and are logged.
package app

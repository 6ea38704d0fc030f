package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/scoop/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	refreshSeconds := flag.Int("refresh", 0, "reload the collection every N seconds (optional)")
	logLevel := flag.String("log-level", "", "override log level: debug, info, warn, error")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, LogLevel: *logLevel}
	if refresh := *refreshSeconds; refresh > 0 {
		opts.RefreshEvery = refresh
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "scoop: %v\n", err)
		return 1
	}
	return 0
}

// Command scoopd serves an in-memory flavor collection over the same REST
// endpoints scoop talks to. It is meant for local development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/five82/scoop/internal/flavor"
	"github.com/five82/scoop/internal/logging"
	"github.com/five82/scoop/internal/memstore"
	"github.com/five82/scoop/internal/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:7488", "listen address")
	collection := flag.String("collection", "/collection", "collection path")
	seed := flag.String("seed", "", "comma-separated flavor names to preload, owned by owner")
	owner := flag.String("owner", flavor.AnonymousOwner, "owner id for seeded flavors")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: *logLevel, Console: true, Pretty: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "scoopd: %v\n", err)
		return 1
	}
	log := logger.With().Str("component", "scoopd").Logger()

	items, err := seedItems(*seed, *owner)
	if err != nil {
		log.Error().Err(err).Msg("seed failed")
		return 1
	}
	store := memstore.New(items...)

	reg := prometheus.NewRegistry()
	h, err := memstore.Handler(store, memstore.ServerOptions{
		CollectionPath: *collection,
		Logger:         logger.Logger,
		Registerer:     reg,
	})
	if err != nil {
		log.Error().Err(err).Msg("init handler")
		return 1
	}

	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler(reg))
	r.Mount("/", h)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{Addr: *addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", *addr).Str("collection", *collection).Int("seeded", len(items)).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
			return 1
		}
		log.Info().Msg("stopped")
	}
	return 0
}

// seedItems turns a comma-separated list into validated items, skipping
// blanks and rejecting duplicates the same way the client would.
func seedItems(raw, owner string) ([]flavor.Item, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	ids, err := flavor.NewIDGenerator()
	if err != nil {
		return nil, err
	}
	var items []flavor.Item
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		name, err := flavor.Validate(part, items)
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", part, err)
		}
		items = append(items, flavor.Item{ID: ids.Next(), Name: name, OwnerID: owner})
	}
	return items, nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/avorin/huddle/internal/adapters/http"
	"github.com/avorin/huddle/internal/app"
	"github.com/avorin/huddle/internal/config"
	"github.com/avorin/huddle/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	st, identities, cleanup := buildStore(ctx, cfg)
	defer cleanup()

	coord := app.NewCoordinator(st, identities, app.CoordinatorOptions{
		HistoryCapacity: cfg.HistoryCapacity,
		PersistQueue:    cfg.PersistQueue,
		PersistWorkers:  cfg.PersistWorkers,
		Policy:          app.DropPolicy{},
	})

	r := router.SetupRouter(ctx, cfg, coord)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Huddle coordinator started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	coord.Stop()
	log.Info().Msg("Server exited gracefully")
}

// buildStore wires the durable store and identity directory per config.
// A broken backend degrades to the no-op store: the coordinator never
// depends on store availability for liveness.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, store.IdentityDirectory, func()) {
	switch cfg.StoreDriver {
	case "mongo":
		ms, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Error().Err(err).Msg("mongo unavailable, falling back to no-op store")
			break
		}
		return ms, store.NewMongoDirectory(ms), func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			if err := ms.Close(closeCtx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		}
	case "nats":
		ns, err := store.NewStreamStore(cfg.NatsURL)
		if err != nil {
			log.Error().Err(err).Msg("nats unavailable, falling back to no-op store")
			break
		}
		return ns, store.NewStaticDirectory(), ns.Close
	}
	return store.NopStore{}, store.NewStaticDirectory(), func() {}
}

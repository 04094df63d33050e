// Command chipi-server runs the device-state HTTP server the appliances
// talk to: sensor ingestion plus LED and LCD face state.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/do0ori/chytonpide-embedded/internal/config"
	"github.com/do0ori/chytonpide-embedded/internal/devstate"
	"github.com/do0ori/chytonpide-embedded/internal/log"
)

const shutdownGrace = 5 * time.Second

func main() {
	addr := pflag.String("addr", ":8000", "listen address")
	pflag.Parse()

	log.Init(os.Getenv("LOG_LEVEL"))
	logger := log.With("component", "cmd.chipi-server")

	config.Load("")

	store, err := buildStore()
	if err != nil {
		logger.Error("store init failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	server := devstate.NewServer(store, devstate.WithServerLogger(log.L()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Listen(*addr) }()

	select {
	case err := <-errCh:
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}
	logger.Info("goodbye")
}

// buildStore picks Redis when REDIS_ADDR is set, in-memory otherwise.
func buildStore() (devstate.Store, error) {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		return devstate.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return devstate.NewRedisStore(client), nil
}

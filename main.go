package main

import (
	"context"
	"errors"
	"log"
	oshttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pmchat/internal/auth"
	"pmchat/internal/config"
	"pmchat/internal/http"
	"pmchat/internal/hub"
	"pmchat/internal/presence"
	"pmchat/internal/store"

	"golang.org/x/sync/errgroup"
)

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	boltStore, err := store.NewBoltStore(cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() { _ = boltStore.Close() }()

	var mirror presence.Mirror
	if cfg.RedisAddr != "" {
		redisMirror := presence.NewRedisMirror(cfg.RedisAddr)
		defer func() { _ = redisMirror.Close() }()
		mirror = redisMirror
	}

	verifier := auth.NewVerifier(cfg.JWTSecret)
	registry := presence.NewRegistry(mirror)

	chatHub := hub.New(hub.Config{
		Store:        store.NewCachedStore(ctx, boltStore),
		Registry:     registry,
		HistoryLimit: cfg.HistoryLimit,
		CallTimeout:  cfg.CallTimeout,
	})

	apiServer := http.NewAPIServer(verifier, chatHub, boltStore, cfg.HistoryLimit, cfg.ListenAddr)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := apiServer.Start()
		if err != nil && err != oshttp.ErrServerClosed {
			return err
		}
		return nil
	})

	// Wait for context cancellation (signal)
	g.Go(func() error {
		<-gCtx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		return nil
	})

	return g.Wait()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Application error: %v", err)
	}
}

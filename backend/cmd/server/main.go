package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"contactgraph/backend/internal/contacts"
	"contactgraph/backend/internal/graph"
	"contactgraph/backend/internal/identity"
	"contactgraph/backend/internal/search"
	"contactgraph/backend/internal/server"
	"contactgraph/backend/pkg/config"
	"contactgraph/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting contact graph server...")

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Two-phase startup: the store must be reachable and its schema in
	// place before any handler is wired
	ctx := context.Background()
	store := graph.NewRepository(driver)
	if err := store.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	// Initialize dependencies
	verifier := identity.NewGoogleVerifier(cfg.GoogleClientID)
	resolver := identity.NewResolver(store, cfg.DefaultRegion)
	contactSvc := contacts.NewService(store, cfg.DefaultRegion)
	searchSvc := search.NewService(store, cfg.DefaultRegion)
	registry := server.NewRegistry()

	router := server.NewRouter(cfg, verifier, resolver, contactSvc, searchSvc, registry)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	group, groupCtx := errgroup.WithContext(context.Background())

	group.Go(func() error {
		log.Info("Server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-quit:
			log.Info("Shutting down server...")
		case <-groupCtx.Done():
			return groupCtx.Err()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		return
	}
	log.Info("Server exited")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/pension-engine/api"
	"github.com/warp/pension-engine/config"
	"github.com/warp/pension-engine/dossier"
	"github.com/warp/pension-engine/pension"
	"github.com/warp/pension-engine/store/sqlite"
)

func serveCmd(configPath *string) *cobra.Command {
	var scenario string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cfg, scenario)
		},
	}
	cmd.Flags().StringVar(&scenario, "scenario", "", "demo scenario to load on startup (resets the database)")
	return cmd
}

// buildServices opens the store and wires the services from cfg. The caller
// closes the store.
func buildServices(cfg *config.Config) (*sqlite.Store, *dossier.Services, error) {
	rules, err := cfg.Pension.Rules()
	if err != nil {
		return nil, nil, err
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize database: %w", err)
	}

	services := dossier.New(store, pension.NewEngine(rules), dossier.Options{
		MaxDocumentSize: cfg.Documents.MaxSizeBytes,
	})
	return store, services, nil
}

func serve(cfg *config.Config, scenario string) error {
	store, services, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	handler := api.NewHandler(services, store)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	if scenario != "" {
		if err := handler.ApplyScenario(context.Background(), scenario); err != nil {
			return err
		}
		log.Printf("[Server] Loaded scenario %q", scenario)
	}

	scheduler := api.NewStatisticsScheduler(services.Statistics)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.Scheduler.Interval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on %s (database %s)", cfg.Server.ListenAddr, cfg.Database.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Println("[Server] Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("[Server] Stopped")
	return nil
}

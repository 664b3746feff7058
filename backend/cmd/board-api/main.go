package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ebrain/board/backend/internal/router"
	"github.com/ebrain/board/backend/internal/service"
	"github.com/ebrain/board/backend/internal/setup"
	"github.com/ebrain/board/backend/internal/storage/pg"
	"github.com/ebrain/board/shared/config"
	"github.com/ebrain/board/shared/logger"
	sharedpg "github.com/ebrain/board/shared/storage/pg"
)

const shutdownTimeout = 30 * time.Second

// loadConfig reads the config folder from the '--config' flag and sets up logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	folder, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if env := os.Getenv("BOARD_CONFIG"); env != "" && !cmd.Flags().Changed("config") {
		folder = env
	}
	cfg := config.MustLoad(folder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)
	return cfg, nil
}

func serveMain(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, err := setup.SetupDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	defer deps.Close()

	deps.Sweeper.StartBackgroundCleanup(ctx, cfg.Public.GCInterval)

	srv := &http.Server{
		Addr:              cfg.Public.Addr,
		Handler:           router.New(deps, ctx.Done()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Log.Info("server started", "addr", cfg.Public.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		logger.Log.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Log.Info("server stopped")
	return nil
}

func migrateMain(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	storage, err := pg.New(ctx, cfg.Private.Pg, sharedpg.ToolConnectionConfig())
	if err != nil {
		return err
	}
	defer storage.Cleanup()

	if err := storage.Migrate(ctx); err != nil {
		return err
	}
	logger.Log.Info("schema is up to date")
	return nil
}

func sweepMain(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	storage, err := pg.New(ctx, cfg.Private.Pg, sharedpg.ToolConnectionConfig())
	if err != nil {
		return err
	}
	defer storage.Cleanup()

	blobs, err := setup.NewBlobStorage(cfg)
	if err != nil {
		return err
	}

	threshold, err := cmd.Flags().GetDuration("safety-threshold")
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("safety-threshold") {
		threshold = cfg.Public.GCSafetyThreshold
	}

	sweeper := service.NewBlobSweeper(storage, blobs, threshold)
	if err := sweeper.RunCleanup(ctx); err != nil {
		return err
	}

	stats := sweeper.GetLastCleanupStats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scanned: %d\norphans: %d\ndeleted: %d\nduration: %dms\n",
		stats.FilesScanned, stats.OrphanedFiles, stats.FilesDeleted, stats.DurationMs)
	for _, e := range stats.Errors {
		fmt.Fprintln(out, "error:", e)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "board-api",
		Short:         "Bulletin board API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "backend/config", "path to folder with public.yaml and private.yaml")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Starts API server",
		RunE:  serveMain,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Applies database schema",
		RunE:  migrateMain,
	})
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Deletes blobs no attachment or thumbnail references",
		RunE:  sweepMain,
	}
	sweepCmd.Flags().Duration("safety-threshold", time.Hour, "keep orphans younger than this")
	rootCmd.AddCommand(sweepCmd)

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

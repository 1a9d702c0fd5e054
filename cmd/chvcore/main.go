// Command chvcore runs the CHV record service and its maintenance commands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chvcore/internal/adapters/exports"
	"chvcore/internal/adapters/httpapi"
	"chvcore/internal/config"
	"chvcore/internal/core"
	"chvcore/internal/logging"
	"chvcore/internal/scheduler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "chvcore",
		Short:        "Community health worker records and escalation service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (yaml, json or toml)")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(exportCmd(&configPath))
	root.AddCommand(statsCmd(&configPath))
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, logger)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	a, err := buildApp(ctx, cfg, logger, buildOptions{notifications: true, blobs: true})
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	worker := exports.NewWorker(a.svc, a.blobs,
		exports.WithLogger(logger),
		exports.WithQueueSize(cfg.Export.QueueSize),
		exports.WithPresignExpiry(cfg.Export.PresignExpiry),
	)
	worker.Start()

	var autosave *scheduler.Autosave
	if cfg.Autosave.Schedule != "" {
		autosave, err = scheduler.NewAutosave(a.svc, cfg.Autosave.Schedule, logger)
		if err != nil {
			_ = worker.Stop(context.Background())
			return err
		}
		autosave.Start()
	}

	handler := httpapi.New(a.svc,
		httpapi.WithExports(worker),
		httpapi.WithLogger(logger),
		httpapi.WithGatherer(a.registry),
	)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("slot_driver", cfg.Slot.Driver),
			zap.String("notify_driver", cfg.Notify.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err, ok := <-serveErr:
		if ok {
			logger.Error("http server failed", zap.Error(err))
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	if autosave != nil {
		autosave.Stop()
	}
	if err := worker.Stop(shutdownCtx); err != nil {
		logger.Warn("export worker stop incomplete", zap.Error(err))
	}
	if err := a.svc.SaveSnapshot(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	logger.Info("server stopped")
	return runErr
}

func exportCmd(configPath *string) *cobra.Command {
	var workerID, format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one worker's records as json, csv or xlsx",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := core.ParseExportFormat(format)
			if err != nil {
				return err
			}
			return withOfflineApp(cmd, *configPath, func(a *app) error {
				data, err := a.svc.ExportData(workerID, f)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(data), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&workerID, "worker", "", "worker id whose records are exported")
	cmd.Flags().StringVar(&format, "format", "json", "json, csv or xlsx")
	cmd.Flags().StringVar(&out, "out", "", "output file; stdout when empty")
	_ = cmd.MarkFlagRequired("worker")
	return cmd
}

func statsCmd(configPath *string) *cobra.Command {
	var workerID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a worker's caseload counters as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOfflineApp(cmd, *configPath, func(a *app) error {
				return writeIndented(cmd.OutOrStdout(), a.svc.Stats(workerID))
			})
		},
	}
	cmd.Flags().StringVar(&workerID, "worker", "", "worker id")
	_ = cmd.MarkFlagRequired("worker")
	return cmd
}

// withOfflineApp opens the repository from the configured slot without
// notifications and runs fn against it.
func withOfflineApp(cmd *cobra.Command, configPath string, fn func(*app) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.NewWithOutput(cfg.Log.Level, cfg.Log.Format, "stderr")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := buildApp(cmd.Context(), cfg, logger, buildOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

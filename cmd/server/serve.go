package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppsgen/backend/internal/handler"
	"github.com/ppsgen/backend/internal/router"
	"github.com/ppsgen/backend/internal/service/orchestrator"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if port != "" {
				a.cfg.Server.Port = port
			}
			a.failStaleRuns(cmd.Context())

			orch, err := orchestrator.NewOrchestrator(a.cfg.Batch.MaxRuns, a.datasets)
			if err != nil {
				return err
			}
			orch.Start()
			a.datasets.SetOrchestrator(orch)

			r := router.Setup(a.cfg, handler.NewDatasetHandler(a.datasets), handler.NewConfigHandler(a.cfg))
			srv := &http.Server{
				Addr:              ":" + a.cfg.Server.Port,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				klog.Infof("Server starting on port %s...", a.cfg.Server.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			klog.Infof("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				klog.Warningf("HTTP 服务关闭失败: %v", err)
			}
			orch.Stop()
			a.datasets.FlushAll(shutdownCtx)
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides config)")
	return cmd
}

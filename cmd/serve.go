package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/metroviz/crimedash/internal/auth"
	"github.com/metroviz/crimedash/internal/boundary"
	"github.com/metroviz/crimedash/internal/loader"
	"github.com/metroviz/crimedash/internal/server"
	"github.com/metroviz/crimedash/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		creds, err := auth.LoadCredentials(cfg.Auth.UsersPath)
		if err != nil {
			return err
		}

		var persist *store.Cache
		if cfg.Data.CacheDB != "" {
			persist, err = store.Open(cfg.Data.CacheDB)
			if err != nil {
				return err
			}
			defer persist.Close()
			if err := persist.Migrate(ctx); err != nil {
				return err
			}
		}

		datasets := loader.NewManager(cfg.Data.Charset, persist)

		// Boundary polygons are required; both datasets preload
		// concurrently so the first request is not the one paying for
		// the preparation pipeline.
		var boundaries *boundary.Set
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			set, err := boundary.Load(gctx, nil, boundary.Config{
				URL:          cfg.Boundary.URL,
				LocalPath:    cfg.Boundary.LocalPath,
				NameProperty: cfg.Boundary.NameProperty,
				Timeout:      time.Duration(cfg.Boundary.TimeoutSecs) * time.Second,
			})
			boundaries = set
			return err
		})
		g.Go(func() error {
			datasets.Load(gctx, cfg.Data.ReducedPath)
			return nil
		})
		g.Go(func() error {
			datasets.Load(gctx, cfg.Data.FullPath)
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		srv := server.New(cfg, datasets, boundaries, creds)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

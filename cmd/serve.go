package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/radar-map/internal/config"
	"github.com/sells-group/radar-map/internal/mapview"
	"github.com/sells-group/radar-map/internal/server"
	"github.com/sells-group/radar-map/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for the map and the feed API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, cfg, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		startSweeper(ctx, env.Store, time.Duration(cfg.Cache.SweepMins)*time.Minute)
		return startServer(ctx, buildMux(env, cfg), resolvePort(servePort, cfg.Server.Port))
	},
}

// buildMux wires the HTTP router from the environment and configuration.
func buildMux(env *appEnv, c *config.Config) http.Handler {
	return server.NewRouter(server.Deps{
		Store:    env.Store,
		Radars:   env.Radars,
		Cameras:  env.Cameras,
		Geocoder: env.Geocoder,
		Map: server.MapSettings{
			Defaults: mapview.Defaults{
				Center:     mapview.LatLng{Lat: c.Map.CenterLat, Lng: c.Map.CenterLng},
				Zoom:       c.Map.Zoom,
				SearchZoom: c.Map.SearchZoom,
			},
			TileURL:  c.Map.TileURL,
			Debounce: time.Duration(c.Map.DebounceMs) * time.Millisecond,
		},
		CORSOrigins:    c.Server.CORSOrigins,
		RequestTimeout: time.Duration(c.Server.RequestTimeoutSecs) * time.Second,
	})
}

// startSweeper purges expired entries in the background when the store keeps
// them until swept. It reports whether a sweeper was started.
func startSweeper(ctx context.Context, st store.Store, interval time.Duration) bool {
	p, ok := st.(store.Purger)
	if !ok || interval <= 0 {
		return false
	}
	zap.L().Info("starting store sweeper", zap.Duration("interval", interval))
	go store.Sweep(ctx, p, interval)
	return true
}

// resolvePort prefers the --port flag over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves h on port until ctx is cancelled, then shuts down
// gracefully.
func startServer(ctx context.Context, h http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

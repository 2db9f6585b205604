// wsmon maintains WebSocket connections and reports their state to the
// console. Connections come from a YAML config file or a single --url
// flag:
//
//	go run ./cmd/wsmon --config configs/connections.yaml
//	go run ./cmd/wsmon --url ws://localhost:8090/echo --key echo --send ping
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/wsbridge/wsbridge"
	"github.com/wsbridge/wsbridge/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to connections config file")
	url := flag.String("url", "", "single connection URL (alternative to --config)")
	key := flag.String("key", "default", "connection key for --url")
	poll := flag.Duration("poll", time.Second, "snapshot poll interval")
	send := flag.String("send", "", "payload to send once per connection after the first open")
	metricsAddr := flag.String("metrics-addr", "", "listen address for Prometheus metrics (empty disables)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("wsmon " + version.String())
		return
	}

	// Set up structured logging
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting wsmon",
		"version", version.Version,
		"commit", version.Commit,
	)

	// Load connection configs
	configs, err := loadConfigs(*configPath, *url, *key)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	opts := []wsbridge.Option{wsbridge.WithLogger(logger)}
	if *metricsAddr != "" {
		opts = append(opts, wsbridge.WithMetrics(prometheus.DefaultRegisterer))
	}
	bridge := wsbridge.New(opts...)

	for name, cfg := range configs {
		if _, err := bridge.Connect(name, cfg); err != nil {
			logger.Error("failed to register connection", "key", name, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("connections registered", "keys", bridge.Keys())

	g, gctx := errgroup.WithContext(ctx)

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		g.Go(func() error {
			logger.Info("metrics server listening", "addr", *metricsAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return pollLoop(gctx, bridge, *poll, *send, logger)
	})

	// Wait for shutdown
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("wsmon failed", "error", err)
		bridge.Close()
		os.Exit(1)
	}

	bridge.Close()
	logger.Info("wsmon stopped")
}

// pollLoop logs every connection's snapshot each interval. When a
// payload is configured it is sent once per key after the first open.
func pollLoop(ctx context.Context, bridge *wsbridge.Bridge, interval time.Duration, payload string, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sent := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, key := range bridge.Keys() {
				snap, err := bridge.Snapshot(key)
				if err != nil {
					continue
				}

				attrs := []any{
					"key", snap.Key,
					"state", snap.State.String(),
					"ready_state", snap.ReadyState,
					"attempt", snap.Attempt,
				}
				if snap.Error != "" {
					attrs = append(attrs, "error", snap.Error)
				}
				if snap.LastMessage != nil {
					attrs = append(attrs, "last_message", snap.LastMessage.Text)
				}
				logger.Info("connection state", attrs...)

				if payload != "" && !sent[key] && snap.IsOpen() {
					if err := bridge.Send(key, payload); err != nil {
						logger.Warn("send failed", "key", key, "error", err)
						continue
					}
					sent[key] = true
				}
			}
		}
	}
}

// loadConfigs resolves the connection set from a config file or the
// --url flag.
func loadConfigs(path, url, key string) (map[string]wsbridge.Config, error) {
	if path != "" {
		return wsbridge.LoadConfigs(path)
	}
	if url == "" {
		return nil, errors.New("either --config or --url is required")
	}
	cfg := wsbridge.DefaultConfig()
	cfg.URL = url
	cfg.Key = key
	return map[string]wsbridge.Config{key: cfg}, nil
}

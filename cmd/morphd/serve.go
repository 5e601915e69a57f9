package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"alpaca-morph/internal/config"
	"alpaca-morph/internal/host"
	"alpaca-morph/internal/logger"
	"alpaca-morph/internal/management"
	"alpaca-morph/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Args:  cobra.NoArgs,
	Short: "Run the morphing host",
	Long:  `Serves the configured document root, morphing HTML pages and padding annotated sub-resources.`,
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := logger.New("MORPHD", cfg.LogLevel)

	printBanner(cfg)

	m := metrics.New()

	mgmt := management.New(cfg, m)
	go func() {
		if err := mgmt.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("management", "fatal: %v", err)
		}
	}()

	hostServer := host.New(cfg, m)
	defer func() {
		if err := hostServer.Close(); err != nil {
			log.Errorf("serve", "dist cache close error: %v", err)
		}
	}()
	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.ServePort)
	log.Infof("serve", "listening on %s", addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           hostServer,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Infof("serve", "shutting down…")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("serve", "shutdown error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("morphd: %w", err)
	}
	return nil
}

func printBanner(cfg *config.Config) {
	mode := "deterministic"
	if cfg.Probabilistic {
		mode = "probabilistic"
	}
	inlining := "disabled"
	if cfg.InliningEnabled {
		inlining = "enabled"
	}

	fmt.Printf(`
╔══════════════════════════════════════════════════════╗
║  morphd — ALPaCA morphing host                        ║
╚══════════════════════════════════════════════════════╝
  Serve port      : %d
  Management port : %d
  Document root   : %s
  Mode            : %s
  Inlining        : %s

  Check status:
    curl http://%s:%d/status
`, cfg.ServePort, cfg.ManagementPort, cfg.RootTemplate, mode, inlining,
		cfg.BindAddress, cfg.ManagementPort)
}

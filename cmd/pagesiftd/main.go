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

	"github.com/pagesift/pagesift/internal/api"
	"github.com/pagesift/pagesift/internal/config"
	"github.com/pagesift/pagesift/internal/crawler"
	"github.com/pagesift/pagesift/internal/fetcher"
	"github.com/pagesift/pagesift/internal/observability"
	"github.com/pagesift/pagesift/internal/queue"
	"github.com/pagesift/pagesift/internal/social"
	"github.com/pagesift/pagesift/internal/storage"
)

var (
	cfgFile string
	verbose bool
	port    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pagesiftd",
		Short: "PageSift — keyword crawling API",
		Long: `PageSift crawls websites for keywords and serves the results over HTTP.

Features:
  • Multi-domain keyword crawling with page, depth and time budgets
  • Pagination following with configurable limits
  • Date window filtering on page metadata
  • Keyword context extraction with relevance scoring
  • Social media API proxying (TikHub, RapidAPI)
  • MongoDB result persistence and PostgreSQL user accounts
  • NATS result publishing
  • Prometheus metrics endpoint`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  "Start the PageSift API server with the crawl, user and social proxy endpoints.",
		RunE:  runServe,
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

// runServe wires the server together and blocks until shutdown.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := observability.NewLogger(&cfg.Logging)
	metrics := observability.NewMetrics(logger)

	httpFetcher, err := fetcher.NewHTTPFetcher(&cfg.Fetcher, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer httpFetcher.Close()

	deps := api.Deps{
		Crawler: crawler.NewOrchestrator(httpFetcher, cfg.Crawler.Concurrency, logger),
		Social:  social.NewClient(&cfg.Social, logger),
		Metrics: metrics,
	}

	if cfg.Storage.MongoURI != "" {
		store, err := storage.NewMongoStore(cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, logger)
		if err != nil {
			return fmt.Errorf("connect mongodb: %w", err)
		}
		defer store.Close()
		deps.Results = store
		logger.Info("result persistence enabled", "backend", store.Name())
	}

	if cfg.Storage.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		users, err := storage.NewPostgresUserStore(ctx, cfg.Storage.PostgresURL, logger)
		if err != nil {
			cancel()
			return fmt.Errorf("connect postgres: %w", err)
		}
		if err := users.EnsureSchema(ctx); err != nil {
			cancel()
			return fmt.Errorf("migrate postgres: %w", err)
		}
		cancel()
		defer users.Close()
		deps.Users = users
		logger.Info("user store enabled")
	}

	if cfg.Queue.URL != "" {
		conn, err := queue.Connect(cfg.Queue.URL, "pagesiftd", logger)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		publisher := queue.NewPublisher(conn, cfg.Queue.Subject, logger)
		defer publisher.Close()
		deps.Publisher = publisher
		logger.Info("result publishing enabled", "subject", cfg.Queue.Subject)
	}

	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	server := api.NewServer(cfg, deps, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-sigCh:
		logger.Info("received signal, shutting down...", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PageSift %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Server:\n")
			fmt.Printf("  Port:              %d\n", cfg.Server.Port)
			fmt.Printf("  Shutdown Timeout:  %s\n", cfg.Server.ShutdownTimeout)
			fmt.Printf("\nCrawler:\n")
			fmt.Printf("  Concurrency:       %d\n", cfg.Crawler.Concurrency)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Follow Redirects:  %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  MongoDB:           %s\n", enabledWhen(cfg.Storage.MongoURI != ""))
			fmt.Printf("  PostgreSQL:        %s\n", enabledWhen(cfg.Storage.PostgresURL != ""))
			fmt.Printf("\nQueue:\n")
			fmt.Printf("  NATS:              %s\n", enabledWhen(cfg.Queue.URL != ""))
			fmt.Printf("  Subject:           %s\n", cfg.Queue.Subject)
			fmt.Printf("\nSocial:\n")
			fmt.Printf("  TikHub Token:      %s\n", configuredWhen(cfg.Social.TikHubToken != ""))
			fmt.Printf("  RapidAPI Key:      %s\n", configuredWhen(cfg.Social.RapidAPIKey != ""))
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

func enabledWhen(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func configuredWhen(on bool) string {
	if on {
		return "configured"
	}
	return "not set"
}

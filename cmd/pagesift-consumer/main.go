// Command pagesift-consumer drains crawl results from NATS into MongoDB. It
// runs alongside one or more pagesiftd instances and shares their
// configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagesift/pagesift/internal/config"
	"github.com/pagesift/pagesift/internal/observability"
	"github.com/pagesift/pagesift/internal/queue"
	"github.com/pagesift/pagesift/internal/storage"
	"github.com/pagesift/pagesift/internal/types"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pagesift-consumer",
		Short: "Persist published crawl results",
		Long: `Subscribe to the crawl result subject and persist every published result
to MongoDB. Consumers in the same queue group share the subject, so running
several instances spreads the load without duplicating writes.`,
		RunE: runConsumer,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runConsumer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Queue.URL == "" {
		return fmt.Errorf("queue url is required (set PAGESIFT_QUEUE_URL or NATS_URL)")
	}
	if cfg.Storage.MongoURI == "" {
		return fmt.Errorf("mongodb uri is required (set PAGESIFT_STORAGE_MONGO_URI or MONGO_URI)")
	}

	logger := observability.NewLogger(&cfg.Logging)

	store, err := storage.NewMongoStore(cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, logger)
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer store.Close()

	conn, err := queue.Connect(cfg.Queue.URL, "pagesift-consumer", logger)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer conn.Close()

	sub, err := queue.Subscribe(conn, cfg.Queue.Subject, cfg.Queue.Group, logger,
		func(result types.CrawlResult) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := store.SaveCrawl(ctx, &result); err != nil {
				logger.Error("failed to persist crawl result", "error", err)
				return
			}
			logger.Info("crawl result persisted",
				"domains", len(result.Results),
				"pages", result.TotalPagesCrawled,
			)
		})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	logger.Info("consumer running",
		"subject", cfg.Queue.Subject,
		"group", cfg.Queue.Group,
		"backend", store.Name(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, draining...", "signal", sig)

	if err := sub.Drain(); err != nil {
		logger.Warn("drain failed", "error", err)
	}
	return nil
}

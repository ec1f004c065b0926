package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/robertorios/pangeaConversations/internal/app"
	"github.com/robertorios/pangeaConversations/internal/config"
	"github.com/robertorios/pangeaConversations/internal/log"
)

func main() {
	var (
		configPath      string
		addr            string
		databasePath    string
		shutdownTimeout time.Duration
		deliveryTimeout time.Duration
		logLevel        string
	)

	rootCmd := &cobra.Command{
		Use:   "pangea-conversations",
		Short: "Real-time conversation messaging server",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLog := log.New(logLevel)

			cfg, path, err := config.Load(bootLog, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// Flags set on the command line win over file and env values.
			cfg.UpdateFrom(config.Config{
				Addr:            addr,
				DatabasePath:    databasePath,
				ShutdownTimeout: shutdownTimeout,
				DeliveryTimeout: deliveryTimeout,
				LogLevel:        logLevel,
			})

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}

			logger.Info().Msg("server stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	rootCmd.Flags().StringVar(&databasePath, "db", "", "path to sqlite database file")
	rootCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	rootCmd.Flags().DurationVar(&deliveryTimeout, "delivery-timeout", 0, "slow subscriber delivery timeout")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

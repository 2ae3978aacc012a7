package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sp1assist/config"
	"sp1assist/internal/app"
	"sp1assist/internal/logging"
)

// cli carries state shared by every subcommand.
type cli struct {
	configPath string
	cfg        *config.LoadResult
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "sp1assist",
		Short: "Generate SP1 zkVM program skeletons",
		Long: `sp1assist turns a short description of a computation into an SP1 zkVM
guest program with prove, verify and test scripts.

Templates produce a deterministic skeleton. Selecting a model additionally
asks that provider to refine the program, falling back to the skeleton when
enhancement fails.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config.yaml (default: ./config.yaml or ./config/config.yaml)")

	root.AddCommand(
		newServeCmd(c),
		newGenerateCmd(c),
		newFeaturesCmd(),
		newTemplatesCmd(),
		newModelsCmd(),
	)
	return root
}

func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Config.Logging.Format, cfg.Config.Logging.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	c.cfg = cfg
	c.logger = logger
	return nil
}

func (c *cli) newApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, app.Config{AppConfig: c.cfg, Logger: c.logger, Version: version})
}

func newServeCmd(c *cli) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				c.cfg.Config.Server.Port = port
			}

			c.logger.Info("starting sp1assist", "version", version)

			a, err := c.newApp(cmd.Context())
			if err != nil {
				return err
			}

			// Handle graceful shutdown
			go func() {
				quit := make(chan os.Signal, 1)
				signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
				<-quit

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := a.Shutdown(ctx); err != nil {
					c.logger.Error("shutdown error", "error", err)
				}
			}()

			return a.Start(":" + c.cfg.Config.Server.Port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides config)")
	return cmd
}

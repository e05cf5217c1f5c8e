// Package commands implements the identityctl command line.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/go-identity-docstore/config"
	"github.com/oksasatya/go-identity-docstore/internal/container"
	"github.com/oksasatya/go-identity-docstore/internal/metrics"
	"github.com/oksasatya/go-identity-docstore/pkg/helpers"
)

var (
	cfg     *config.Config
	logger  *logrus.Logger
	backend string
)

func Execute() error {
	root := &cobra.Command{
		Use:           "identityctl",
		Short:         "Manage users and roles in the identity document store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load() // load .env if present
			cfg = config.Load()
			if backend != "" {
				cfg.Backend = backend
			}
			logger = helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
			if !cfg.Persistent() {
				logger.WithField("backend", cfg.Backend).Warn("backend does not persist between runs; set IDENTITY_BACKEND or --backend")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&backend, "backend", "", "store backend: memory, redis, postgres or elasticsearch (default $IDENTITY_BACKEND)")

	root.AddCommand(migrateCmd(), userCmd(), roleCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

// withContainer builds the stores for one command and releases them after.
func withContainer(cmd *cobra.Command, fn func(context.Context, *container.Container) error) error {
	ctx := cmd.Context()
	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()
	defer reportMetrics(c)
	return fn(ctx, c)
}

func reportMetrics(c *container.Container) {
	if c.Metrics == nil {
		return
	}
	samples, err := metrics.Snapshot(c.Metrics)
	if err != nil {
		logger.WithError(err).Warn("gather metrics failed")
		return
	}
	for _, s := range samples {
		fields := logrus.Fields{"metric": s.Name, "value": s.Value}
		if s.Count > 0 {
			fields["count"] = s.Count
		}
		for k, v := range s.Labels {
			fields[k] = v
		}
		logger.WithFields(fields).Info("metrics")
	}
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Bitlatte/shitdocs/internal/collection"
	"github.com/Bitlatte/shitdocs/internal/config"
	"github.com/Bitlatte/shitdocs/internal/ctxlog"
	"github.com/Bitlatte/shitdocs/internal/site"
)

var cfgFile string

type builderKey struct{}

var rootCmd = &cobra.Command{
	Use:   "S.H.I.T",
	Short: "SHIT SSG - Static HTML Is Terrific!",
	Long: `Static HTML Is Terrific (SHIT) is a CLI tool that will take
your Markdown content, validate it against its collection schemas,
process it, and output a static HTML website.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

func initializeConfig(cmd *cobra.Command) error {
	cfg, used, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	level, ok := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if !ok {
		logger.Warn("Invalid logLevel, using info", "value", cfg.LogLevel)
	}
	if used != "" {
		logger.Info("Using config file", "path", used)
	} else {
		logger.Info("No config file found, using defaults and environment variables")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	builder := &site.Builder{Config: cfg, Registry: collection.Default()}
	ctx = context.WithValue(ctxlog.WithLogger(ctx, logger), builderKey{}, builder)
	cmd.SetContext(ctx)
	return nil
}

// newBuilder returns the builder initializeConfig attached to the command's
// context. Its registry is shared read-only by everything the command runs.
func newBuilder(cmd *cobra.Command) *site.Builder {
	return cmd.Context().Value(builderKey{}).(*site.Builder)
}

// Package cmd implements the curator command-line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jcaisse/curated-content-portal-sub001/internal/bootstrap"
)

var (
	// cfgFile is the configuration file path; CONFIG_PATH or config.yml when empty.
	cfgFile string
	// debug forces debug logging.
	debug bool
)

// NewRootCommand builds the curator command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "curator",
		Short:         "Keyword-driven content curation service",
		Long:          `curator crawls configured sources for keyword-matched articles, queues them for moderation and publishes approved items as posts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newServeCommand(),
		newCrawlCommand(),
		newStatsCommand(),
		newMigrateCommand(),
		newTokenCommand(),
	)
	return root
}

// Execute runs the root command until it returns or SIGINT/SIGTERM arrives.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func commandDeps() (*bootstrap.CommandDeps, error) {
	return bootstrap.NewCommandDeps(cfgFile, debug)
}

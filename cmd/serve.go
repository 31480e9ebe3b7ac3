package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jcaisse/curated-content-portal-sub001/internal/bootstrap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the crawl scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := commandDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			return bootstrap.Serve(cmd.Context(), deps)
		},
	}
}

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/jwt"
)

const defaultTokenTTL = 24 * time.Hour

var errNoSecret = errors.New("auth.jwt_secret is not configured")

func newTokenCommand() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <moderator-id>",
		Short: "Issue a bearer token whose subject is the moderator id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := commandDeps()
			if err != nil {
				return err
			}
			if deps.Config.Auth.JWTSecret == "" {
				return errNoSecret
			}

			token, err := jwt.Issue(deps.Config.Auth.JWTSecret, args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL, "token lifetime")
	return cmd
}

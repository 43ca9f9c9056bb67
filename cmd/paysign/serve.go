package main

import (
	"github.com/spf13/cobra"

	"paysign/internal/app"
	"paysign/internal/config"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the verifying gateway in front of UPSTREAM_URL",
		Long: `Verify every request's signature and timestamp, then reverse proxy it to
UPSTREAM_URL with X-Signature removed and X-Authenticated-Api-Key added.
Credentials are read from CREDENTIAL_STORE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), config.Load())
		},
	}
}

// Command paysign signs and verifies payment API requests, runs the
// verifying gateway and sends or receives signed webhooks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "paysign",
		Short:         "HMAC-SHA256 request signing for the payments API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(signCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(stepsCmd())
	rootCmd.AddCommand(keysCmd())
	rootCmd.AddCommand(webhookCmd())

	return rootCmd
}

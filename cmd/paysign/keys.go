package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"paysign/internal/config"
	"paysign/internal/credentials"
)

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Provision credentials in the configured store",
	}
	cmd.AddCommand(keysCreateCmd())
	cmd.AddCommand(keysDeleteCmd())
	return cmd
}

func openStore(cmd *cobra.Command) (credentials.Store, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.CredentialStore == "memory" {
		return nil, fmt.Errorf("CREDENTIAL_STORE 'memory' does not persist keys")
	}
	return credentials.Open(cmd.Context(), cfg)
}

func keysCreateCmd() *cobra.Command {
	var apiKey, secret string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate and store a new api key / secret key pair",
		Long: `Generate a new pair, or store the one given with --api-key and --secret.
The secret key is printed once and must be shared with the caller out of band.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credentials.Generate()
			if err != nil {
				return err
			}
			if apiKey != "" {
				creds.APIKey = apiKey
			}
			if secret != "" {
				creds.SecretKey = secret
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Put(cmd.Context(), creds); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API key:    %s\n", creds.APIKey)
			fmt.Fprintf(out, "Secret key: %s\n", creds.SecretKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Use this api key instead of generating one")
	cmd.Flags().StringVar(&secret, "secret", "", "Use this secret key instead of generating one")
	return cmd
}

func keysDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [api-key]",
		Short: "Revoke an api key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

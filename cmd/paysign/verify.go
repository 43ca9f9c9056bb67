package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"paysign/internal/common/errors"
	"paysign/internal/config"
	"paysign/internal/credentials"
	"paysign/internal/signing"
	"paysign/internal/verifier"
)

func verifyCmd() *cobra.Command {
	var (
		flags     requestFlags
		secret    string
		signature string
		now       string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a signature the way the gateway does",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			key, err := secretFrom(secret, cfg)
			if err != nil {
				return err
			}
			if flags.timestamp == "" {
				return fmt.Errorf("--timestamp is required")
			}
			in, err := flags.input(cmd, cfg)
			if err != nil {
				return err
			}

			clock := time.Now
			if now != "" {
				unix, err := strconv.ParseInt(now, 10, 64)
				if err != nil {
					return fmt.Errorf("--now must be unix seconds")
				}
				clock = func() time.Time { return time.Unix(unix, 0) }
			}

			header := http.Header{}
			header.Set(signing.HeaderAPIKey, in.APIKey)
			header.Set(signing.HeaderTimestamp, flags.timestamp)
			header.Set(signing.HeaderSignature, signature)
			header.Set(signing.HeaderContentType, signing.ContentTypeJSON)

			store := credentials.NewMemoryStore(signing.Credentials{APIKey: in.APIKey, SecretKey: key})
			v := verifier.New(store, verifier.WithClock(clock), verifier.WithTolerance(cfg.Tolerance()))

			_, err = v.Verify(cmd.Context(), verifier.Request{
				Method: string(in.Method),
				Path:   in.Path,
				Body:   []byte(in.Body),
				Header: header,
			})
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "INVALID (%s)\n", errors.GetType(err))
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}

	flags.register(cmd, requestFlags{method: string(signing.MethodPost)})
	cmd.Flags().StringVarP(&secret, "secret", "s", "", "Secret key (default: PAYSIGN_SECRET_KEY)")
	cmd.Flags().StringVar(&signature, "signature", "", "X-Signature value to check")
	cmd.Flags().StringVar(&now, "now", "", "Verify as of this unix time (default: now)")
	_ = cmd.MarkFlagRequired("signature")

	return cmd
}

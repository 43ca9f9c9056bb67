package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"paysign/internal/config"
	"paysign/internal/signing"
)

func signCmd() *cobra.Command {
	var (
		flags     requestFlags
		secret    string
		canonical string
		show      bool
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Compute the X-Signature for a request",
		Long: `Build the canonical string METHOD\nPATH\nBODY\nTIMESTAMP\nAPI_KEY and sign
it with HMAC-SHA256. Prints the headers to send.

With --string the canonical string is given directly, as in the live
calculator; literal \n sequences are treated as newlines.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			key, err := secretFrom(secret, cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cmd.Flags().Changed("string") {
				message := signing.UnescapeNewlines(canonical)
				fmt.Fprintln(out, signing.Sign([]byte(key), []byte(message)))
				if show {
					printFields(cmd, []byte(message))
				}
				return nil
			}

			in, err := flags.input(cmd, cfg)
			if err != nil {
				return err
			}
			sig, err := signing.SignInput(key, in)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s: %s\n", signing.HeaderAPIKey, in.APIKey)
			fmt.Fprintf(out, "%s: %s\n", signing.HeaderTimestamp, strconv.FormatInt(in.Timestamp, 10))
			fmt.Fprintf(out, "%s: %s\n", signing.HeaderSignature, sig)
			fmt.Fprintf(out, "%s: %s\n", signing.HeaderContentType, signing.ContentTypeJSON)
			if show {
				printFields(cmd, signing.Build(in))
			}
			return nil
		},
	}

	flags.register(cmd, requestFlags{method: string(signing.MethodPost)})
	cmd.Flags().StringVarP(&secret, "secret", "s", "", "Secret key (default: PAYSIGN_SECRET_KEY)")
	cmd.Flags().StringVar(&canonical, "string", "", "Sign this canonical string instead of building one")
	cmd.Flags().BoolVar(&show, "show-canonical", false, "Print the canonical string fields")

	return cmd
}

func printFields(cmd *cobra.Command, canonical []byte) {
	out := cmd.OutOrStdout()
	fields, ok := signing.SplitCanonical(canonical)
	if !ok {
		fmt.Fprintln(out, "\nCanonical string does not have five fields")
		return
	}

	fmt.Fprintln(out, "\nCanonical string:")
	for i, label := range []string{"METHOD", "PATH", "BODY", "TIMESTAMP", "API_KEY"} {
		fmt.Fprintf(out, "  %-9s %q\n", label, fields[i])
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"paysign/internal/app"
	"paysign/internal/common/logging"
	"paysign/internal/config"
	"paysign/internal/webhooks"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Send or receive signed deposit and payout webhooks",
	}
	cmd.AddCommand(webhookSendCmd())
	cmd.AddCommand(webhookListenCmd())
	return cmd
}

func webhookSendCmd() *cobra.Command {
	var event, data, dataFile, baseURL string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Sign and deliver an event to <base-url>/webhooks/<payout|deposit>",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := app.InitLogging(cfg); err != nil {
				return err
			}
			defer logging.MustSync()

			creds, err := app.CallerCredentials(cfg)
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.BaseURL
			}

			raw := []byte(data)
			if dataFile != "" {
				if raw, err = os.ReadFile(dataFile); err != nil {
					return fmt.Errorf("read data file: %w", err)
				}
			}
			if !json.Valid(raw) {
				return fmt.Errorf("event data must be a JSON object")
			}

			eventType := webhooks.EventType(event)
			if !eventType.Known() {
				return fmt.Errorf("unknown event %q", event)
			}

			sender, err := webhooks.NewSender(baseURL, creds, webhooks.WithSenderLogger(logging.GetGlobalLogger()))
			if err != nil {
				return err
			}

			delivery, err := sender.Send(cmd.Context(), webhooks.Event{
				Event:     eventType,
				Timestamp: time.Now().UTC(),
				Data:      raw,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: status %d after %d attempt(s)\n",
				delivery.Event, delivery.URL, delivery.StatusCode, delivery.Attempts)
			return err
		},
	}

	cmd.Flags().StringVarP(&event, "event", "e", string(webhooks.EventPayoutCompleted), "Event name")
	cmd.Flags().StringVar(&data, "data", "{}", "Event data as JSON")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "Read event data from a file")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Consumer base URL (default: PAYSIGN_BASE_URL)")
	return cmd
}

func webhookListenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Receive webhooks on PORT and log verified events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := app.InitLogging(cfg); err != nil {
				return err
			}
			defer logging.MustSync()

			ctx, stop := app.SignalContext(cmd.Context())
			defer stop()

			logger := logging.GetGlobalLogger()
			return app.ListenWebhooks(ctx, cfg, app.LoggingHandler{Logger: logger}, logger)
		},
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"paysign/internal/config"
	"paysign/internal/visualizer"
)

func stepsCmd() *cobra.Command {
	var (
		flags    requestFlags
		play     bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Show how the canonical string is built field by field",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			in, err := flags.input(cmd, cfg)
			if err != nil {
				return err
			}
			if err := in.Validate(); err != nil {
				return err
			}

			steps := visualizer.Steps(in)
			out := cmd.OutOrStdout()
			if !play {
				return visualizer.Render(out, steps, len(steps)-1, true)
			}

			p := visualizer.NewPlayer(len(steps))
			var renderErr error
			err = visualizer.Play(cmd.Context(), p, interval, func(active int) {
				if p.Complete() {
					fmt.Fprintln(out, "\n--- complete ---")
				} else {
					fmt.Fprintf(out, "\n--- step %d of %d ---\n", active+1, len(steps))
				}
				if err := visualizer.Render(out, steps, active, p.Complete()); err != nil && renderErr == nil {
					renderErr = err
				}
			})
			if err != nil {
				return err
			}
			return renderErr
		},
	}

	flags.register(cmd, documentedRequest)
	cmd.Flags().BoolVar(&play, "play", false, "Reveal one field at a time")
	cmd.Flags().DurationVar(&interval, "interval", visualizer.DefaultInterval, "Delay between fields with --play")

	return cmd
}

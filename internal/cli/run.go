package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/schedsim/internal/playback"
	"github.com/me/schedsim/pkg/model"
)

// outputFlags are shared by the commands that print a single result.
type outputFlags struct {
	replay bool
	delay  time.Duration
	asJSON bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.replay, "replay", false, "Step through the timeline slice by slice before printing it")
	cmd.Flags().DurationVar(&o.delay, "delay", playback.DefaultDelay, "Pause between slices when replaying")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "Print the result as JSON")
}

func (o *outputFlags) print(cmd *cobra.Command, res *model.Result) error {
	out := cmd.OutOrStdout()
	if o.asJSON {
		return writeJSON(out, res)
	}
	if o.replay {
		if err := replayResult(cmd.Context(), out, res, o.delay); err != nil {
			return err
		}
	}
	renderResult(out, res)
	return nil
}

func newRunCmd() *cobra.Command {
	var (
		algorithm string
		quantum   int
		output    outputFlags
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate the registered processes on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := model.RunRequest{Algorithm: algorithm}
			if cmd.Flags().Changed("quantum") {
				req.Quantum = &quantum
			}

			res, err := client.Run(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			return output.print(cmd, res)
		},
	}

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "", "Scheduling algorithm (FCFS, SJF, RR, SRTF, PRIORITY)")
	cmd.Flags().IntVarP(&quantum, "quantum", "q", model.DefaultQuantum, "Time quantum for RR (server default when omitted)")
	output.register(cmd)
	_ = cmd.MarkFlagRequired("algorithm")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/schedsim/internal/engine"
	"github.com/me/schedsim/internal/workload"
)

func newWatchCmd() *cobra.Command {
	var (
		run      runFlags
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <workload>",
		Short: "Re-simulate a workload file every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			err := workload.Watch(ctx, args[0], debounce, func(wl *workload.Workload, err error) {
				fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("── %s ── %s", args[0], time.Now().Format(time.TimeOnly))))
				if err != nil {
					fmt.Fprintln(out, accentStyle.Render("error: ")+err.Error())
					return
				}
				alg, quantum, err := run.resolve(cmd, wl)
				if err != nil {
					fmt.Fprintln(out, accentStyle.Render("error: ")+err.Error())
					return
				}
				res, err := engine.Run(wl.Processes, alg, quantum, run.options()...)
				if err != nil {
					fmt.Fprintln(out, accentStyle.Render("error: ")+err.Error())
					return
				}
				renderResult(out, res)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	run.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", workload.DefaultDebounce, "Wait this long after the last change before re-running")
	return cmd
}

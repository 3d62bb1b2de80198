package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/schedsim/internal/workload"
	"github.com/me/schedsim/pkg/model"
)

func newAddCmd() *cobra.Command {
	var priority int

	cmd := &cobra.Command{
		Use:   "add <name> <arrival> <burst>",
		Short: "Register a process on the server",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			arrival, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("arrival must be an integer: %q", args[1])
			}
			burst, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("burst must be an integer: %q", args[2])
			}

			p := model.Process{Name: args[0], Arrival: arrival, Burst: burst, Priority: priority}
			if err := p.Validate(); err != nil {
				return err
			}

			processes, err := client.AddProcess(cmd.Context(), p)
			if err != nil {
				return fmt.Errorf("add process: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%d registered)\n", accentStyle.Render(p.Name), len(processes))
			return nil
		},
	}

	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "Priority for PRIORITY scheduling (lower runs first)")
	return cmd
}

func newListCmd() *cobra.Command {
	var (
		save   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			processes, err := client.ListProcesses(cmd.Context())
			if err != nil {
				return fmt.Errorf("list processes: %w", err)
			}

			if save != "" {
				if err := saveWorkload(save, &workload.Workload{Processes: processes}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d processes to %s\n", len(processes), save)
				return nil
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), processes)
			}
			renderProcesses(cmd.OutOrStdout(), processes)
			return nil
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "Write the processes to a workload file (.yaml, .json or .csv)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove every registered process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := client.Reset(cmd.Context())
			if err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func saveWorkload(path string, wl *workload.Workload) error {
	format, err := workload.FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := workload.Write(f, format, wl); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/schedsim/internal/engine"
	"github.com/me/schedsim/pkg/model"
)

func newAlgorithmsCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List the supported scheduling algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			algs := engine.Algorithms()
			if remote {
				var err error
				if algs, err = client.Algorithms(cmd.Context()); err != nil {
					return fmt.Errorf("list algorithms: %w", err)
				}
			}
			renderAlgorithms(cmd, algs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the server instead of this binary")
	return cmd
}

func renderAlgorithms(cmd *cobra.Command, algs []model.AlgorithmInfo) {
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}
	t := newTable("ID", "NAME", "PREEMPTIVE", "QUANTUM", "DESCRIPTION")
	for _, info := range algs {
		t.Row(string(info.ID), info.Name, yesNo(info.Preemptive), yesNo(info.UsesQuantum), info.Description)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
}

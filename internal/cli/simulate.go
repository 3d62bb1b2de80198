package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/me/schedsim/internal/engine"
	"github.com/me/schedsim/internal/export"
	"github.com/me/schedsim/internal/workload"
	"github.com/me/schedsim/pkg/model"
)

// runFlags pick the algorithm and quantum for local simulations. Unset flags
// fall back to the workload's defaults, then to FCFS and DefaultQuantum.
type runFlags struct {
	algorithm     string
	quantum       int
	idleSnapshots bool
}

func (r *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.algorithm, "algorithm", "a", "", "Scheduling algorithm (default: workload's, else FCFS)")
	cmd.Flags().IntVarP(&r.quantum, "quantum", "q", model.DefaultQuantum, "Time quantum for RR (default: workload's, else 2)")
	cmd.Flags().BoolVar(&r.idleSnapshots, "idle-snapshots", false, "Record idle gaps in the queue history")
}

func (r *runFlags) resolve(cmd *cobra.Command, wl *workload.Workload) (model.Algorithm, int, error) {
	name := r.algorithm
	if name == "" {
		name = wl.Algorithm
	}
	alg := model.AlgorithmFCFS
	if name != "" {
		var err error
		if alg, err = model.ParseAlgorithm(name); err != nil {
			return "", 0, err
		}
	}

	quantum := model.DefaultQuantum
	switch {
	case cmd.Flags().Changed("quantum"):
		quantum = r.quantum
	case wl.Quantum > 0:
		quantum = wl.Quantum
	}
	return alg, quantum, nil
}

func (r *runFlags) options() []engine.Option {
	opts := []engine.Option{engine.WithLogger(logger)}
	if r.idleSnapshots {
		opts = append(opts, engine.WithIdleSnapshots())
	}
	return opts
}

func newSimulateCmd() *cobra.Command {
	var (
		run        runFlags
		output     outputFlags
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "simulate <workload>",
		Short: "Simulate a workload file locally",
		Long: `Simulate a workload file (YAML, JSON, CSV or XLSX) without a server.

The algorithm and quantum come from the flags, then from the workload
document, then default to FCFS with quantum 2.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := workload.Load(args[0])
			if err != nil {
				return err
			}
			alg, quantum, err := run.resolve(cmd, wl)
			if err != nil {
				return err
			}

			res, err := engine.Run(wl.Processes, alg, quantum, run.options()...)
			if err != nil {
				return err
			}
			logger.Info("simulation complete", "algorithm", alg, "processes", len(wl.Processes), "slices", len(res.Execution))

			if exportPath != "" {
				if err := exportFile(exportPath, func(f *os.File) error { return export.WriteResult(f, res) }); err != nil {
					return err
				}
			}
			return output.print(cmd, res)
		},
	}

	run.register(cmd)
	output.register(cmd)
	cmd.Flags().StringVar(&exportPath, "export", "", "Also write the result to an XLSX workbook")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var (
		names      []string
		quantum    int
		exportPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "compare <workload>",
		Short: "Simulate a workload under several algorithms side by side",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := workload.Load(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("quantum") && wl.Quantum > 0 {
				quantum = wl.Quantum
			}

			algs := model.KnownAlgorithms
			if len(names) > 0 {
				algs = make([]model.Algorithm, 0, len(names))
				for _, n := range names {
					alg, err := model.ParseAlgorithm(n)
					if err != nil {
						return err
					}
					algs = append(algs, alg)
				}
			}

			results, err := compareAlgorithms(cmd, wl.Processes, algs, quantum)
			if err != nil {
				return err
			}

			if exportPath != "" {
				if err := exportFile(exportPath, func(f *os.File) error { return export.WriteComparison(f, results) }); err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			renderComparison(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&names, "algorithms", "a", nil, "Algorithms to compare (default: all)")
	cmd.Flags().IntVarP(&quantum, "quantum", "q", model.DefaultQuantum, "Time quantum for RR (default: workload's, else 2)")
	cmd.Flags().StringVar(&exportPath, "export", "", "Also write the comparison to an XLSX workbook")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the results as JSON")
	return cmd
}

// compareAlgorithms runs every algorithm concurrently. Each goroutine owns
// one slot of results, so they keep the order of algs.
func compareAlgorithms(cmd *cobra.Command, processes []model.Process, algs []model.Algorithm, quantum int) ([]*model.Result, error) {
	results := make([]*model.Result, len(algs))
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, alg := range algs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := engine.Run(processes, alg, quantum, engine.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("%s: %w", alg, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func exportFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("exported", "path", path)
	return nil
}

// Package cli implements the schedsim command line: commands that drive a
// running server and commands that simulate workload files locally.
package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/schedsim/internal/logging"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string
	flagTimeout   time.Duration

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking SCHEDSIM_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("SCHEDSIM_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the schedsim CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "schedsim",
		Short: "SchedSim: CPU scheduling simulator",
		Long: `SchedSim simulates FCFS, SJF, Round-Robin, SRTF and PRIORITY scheduling
over a set of processes and shows the resulting timeline, ready-queue history
and summary metrics.

add, list, reset and run talk to a schedsim server; simulate, compare and
watch work on local workload files (YAML, JSON, CSV or XLSX).`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
			client = NewClient(flagServer, logger)
			client.HTTPClient.Timeout = flagTimeout
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "SchedSim server URL (or SCHEDSIM_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "Timeout for server requests")

	root.AddGroup(
		&cobra.Group{ID: groupServer, Title: "Server commands:"},
		&cobra.Group{ID: groupLocal, Title: "Local commands:"},
	)
	addToGroup(root, groupServer, newAddCmd(), newListCmd(), newResetCmd(), newRunCmd())
	addToGroup(root, groupLocal, newSimulateCmd(), newCompareCmd(), newWatchCmd(), newAlgorithmsCmd())

	return root
}

const (
	groupServer = "server"
	groupLocal  = "local"
)

func addToGroup(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = group
		root.AddCommand(c)
	}
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/robotharness/internal/history"
	"github.com/zinc-sig/robotharness/internal/logging"
	"github.com/zinc-sig/robotharness/robot"
	"github.com/zinc-sig/robotharness/robot/control"
)

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	debug     bool
	logFile   string
	historyDB string
}

// newEngine connects to the robot at addr. Tests replace it.
var newEngine = func(addr string) (robot.Engine, error) {
	return control.New(addr)
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "robotharness",
		Short: "Run robot network scripts with structured output",
		Long: `robotharness drives an external robot scripting engine: it prepares a
script, lets the robot play it, and compares the script's expected and actual
transcripts. Results are printed as JSON, optionally recorded in a history
database, delivered to a webhook and uploaded to object storage.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logging.Initialize(g.debug, g.logFile)
			return err
		},
	}

	rootCmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Write debug logs (also ROBOT_DEBUG=1)")
	rootCmd.PersistentFlags().StringVar(&g.logFile, "log-file", "", "Debug log file (default: a new file under the state directory)")
	rootCmd.PersistentFlags().StringVar(&g.historyDB, "history-db", os.Getenv("ROBOT_HISTORY_DB"), "SQLite database recording runs (disabled when empty)")

	rootCmd.AddCommand(newRunCmd(g))
	rootCmd.AddCommand(newDiffCmd(g))
	rootCmd.AddCommand(newSuiteCmd(g))
	rootCmd.AddCommand(newHistoryCmd(g))
	return rootCmd
}

// openHistory opens the history database, or returns nil when none is
// configured.
func (g *globalFlags) openHistory() (*history.Store, error) {
	if g.historyDB == "" {
		return nil, nil
	}
	return history.Open(g.historyDB)
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/NickCao/ebpf-verifier/internal/config"
	"github.com/NickCao/ebpf-verifier/internal/log"
)

var (
	flagConfig  string
	flagVerbose bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "ebpf-verifier",
	Short: "ebpf-verifier - static admission checks for untrusted bytecode programs",
	Long: `ebpf-verifier analyzes control-flow graphs of untrusted bytecode
programs before they are admitted into a privileged execution environment.

Commands:
  dump        Print the control-flow graph of a program
  stats       Show program statistics (statements, loads, stores, branches)
  simplify    Run structural simplification and report the result
  analyze     Run the definite-assignment analysis
  batch       Analyze every program description under a directory
  init        Create a configuration file interactively

Use "ebpf-verifier [command] --help" for more information about a command.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			log.Default().SetLevel(log.DebugLevel)
		}
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig resolves the effective configuration: the --config file when
// given, otherwise the default search path, with environment overrides.
func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		return config.LoadFromFile(flagConfig)
	}
	return config.Load()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	RootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	// Add subcommands
	RootCmd.AddCommand(dumpCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(simplifyCmd)
	RootCmd.AddCommand(analyzeCmd)
	RootCmd.AddCommand(batchCmd)
	RootCmd.AddCommand(initCmd)
}

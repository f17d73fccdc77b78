package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NickCao/ebpf-verifier/internal/log"
	"github.com/NickCao/ebpf-verifier/pkg/fixpoint"
	"github.com/NickCao/ebpf-verifier/pkg/program"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <program.yaml>",
	Short: "Run the definite-assignment analysis",
	Long: `Loads a YAML program description and runs the fixpoint solver with a
definite-assignment domain, reporting every statement that reads a variable
before all paths from the entry have assigned it. The widening delay and the
iteration budget come from the configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(args[0])
	},
}

func runAnalyze(path string) error {
	logger := log.Default()

	cfgFile, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := program.LoadFile(path)
	if err != nil {
		return err
	}

	dom := fixpoint.NewAssigned(c)
	opts := fixpoint.Options{
		WideningDelay: cfgFile.WideningDelay,
		MaxIterations: cfgFile.MaxIterations,
	}
	logger.Debug("solving", "widening_delay", opts.WideningDelay, "max_iterations", opts.MaxIterations)

	states, err := fixpoint.Solve(c, dom, opts)
	if err != nil {
		if errors.Is(err, fixpoint.ErrDiverged) {
			return fmt.Errorf("analysis of %s did not converge: %w", path, err)
		}
		return err
	}

	uses := dom.UnassignedUses(states)
	if len(uses) == 0 {
		fmt.Printf("%d blocks analyzed, no unassigned reads\n", len(states))
		return nil
	}
	for _, u := range uses {
		fmt.Printf("%s: %s reads %s before assignment\n", u.Block, u.Statement, u.Var)
	}
	return fmt.Errorf("%d unassigned reads", len(uses))
}

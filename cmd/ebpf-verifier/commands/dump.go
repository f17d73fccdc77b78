package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NickCao/ebpf-verifier/internal/log"
	"github.com/NickCao/ebpf-verifier/pkg/program"
)

var (
	dumpReverse  bool
	dumpSimplify bool
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <program.yaml>",
	Short: "Print the control-flow graph of a program",
	Long: `Loads a YAML program description, builds its control-flow graph, and
prints a human-readable dump: each block's label, statements, and successor
list. With --reverse the backward view is printed instead (requires the
program to declare an exit block). The output is for debugging only and is
not a stable format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDump(args[0])
	},
}

func runDump(path string) error {
	logger := log.Default()

	c, err := program.LoadFile(path)
	if err != nil {
		return err
	}
	logger.Debug("program loaded", "path", path, "blocks", c.Size())

	if dumpSimplify {
		res := c.Simplify()
		logger.Debug("simplified",
			"merged", res.Merged,
			"unreachable_removed", res.UnreachableRemoved,
			"dead_end_removed", res.DeadEndRemoved)
	}

	if dumpReverse {
		rev, err := c.Reverse()
		if err != nil {
			return fmt.Errorf("building reverse view: %w", err)
		}
		fmt.Print(rev.String())
		return nil
	}

	fmt.Print(c.String())
	return nil
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpReverse, "reverse", false, "print the backward (reversed) view")
	dumpCmd.Flags().BoolVar(&dumpSimplify, "simplify", false, "simplify before printing")
}

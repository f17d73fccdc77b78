package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NickCao/ebpf-verifier/pkg/program"
)

var statsJSON bool

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <program.yaml>",
	Short: "Show program statistics",
	Long: `Loads a YAML program description and reports statement counts, array
loads and stores, and the branch/join structure of its control-flow graph.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats(args[0])
	},
}

func runStats(path string) error {
	c, err := program.LoadFile(path)
	if err != nil {
		return err
	}

	stats := c.CollectStats()

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("blocks:     %d\n", c.Size())
	fmt.Printf("statements: %d\n", stats.Statements)
	fmt.Printf("loads:      %d\n", stats.Loads)
	fmt.Printf("stores:     %d\n", stats.Stores)
	fmt.Printf("branches:   %d\n", stats.Branches)
	fmt.Printf("joins:      %d\n", stats.Joins)
	return nil
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

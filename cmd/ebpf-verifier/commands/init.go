package commands

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/NickCao/ebpf-verifier/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ebpf-verifier configuration interactively",
	Long: `Guides you through setting up ebpf-verifier configuration step by step.
Creates a config file with simplification, fixpoint, and cache settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Simplification ===
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Merge straight-line blocks").
				Description("Fold single-predecessor, single-successor chains during simplification").
				Value(&cfg.MergeBlocks),
			huh.NewConfirm().
				Title("Prune unreachable blocks").
				Description("Remove blocks unreachable from the entry or unable to reach the exit").
				Value(&cfg.PruneUnreachable),
			huh.NewConfirm().
				Title("Reject programs with an unreachable exit").
				Description("Treat an exit block the entry cannot reach as a hard error").
				Value(&cfg.RejectUnreachable),
		),
	)
	err := form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Fixpoint ===
	wideningDelay := strconv.Itoa(cfg.WideningDelay)
	maxIterations := strconv.Itoa(cfg.MaxIterations)
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Widening delay").
				Description("Joins per block before the solver switches to widening").
				Placeholder(wideningDelay).
				Value(&wideningDelay).
				Validate(validateInt),
			huh.NewInput().
				Title("Iteration budget").
				Description("Maximum worklist visits before the solver gives up (0 for default)").
				Placeholder(maxIterations).
				Value(&maxIterations).
				Validate(validateInt),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.WideningDelay, _ = strconv.Atoi(wideningDelay)
	cfg.MaxIterations, _ = strconv.Atoi(maxIterations)

	// === SECTION 3: Verdict Cache ===
	cacheEntries := strconv.Itoa(cfg.CacheEntries)
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cache directory").
				Placeholder(cfg.CacheDir).
				Value(&cfg.CacheDir),
			huh.NewInput().
				Title("Cache entries").
				Description("Maximum cached verdicts before the oldest is evicted").
				Placeholder(cacheEntries).
				Value(&cacheEntries).
				Validate(validateInt),
			huh.NewConfirm().
				Title("Verbose logging").
				Value(&cfg.Verbose),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.CacheEntries, _ = strconv.Atoi(cacheEntries)

	// Validate config before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configPath := config.SavePath()
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	fmt.Println("Run 'ebpf-verifier simplify <program.yaml>' to analyze a program.")
	return nil
}

func validateInt(s string) error {
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("must be a number")
	}
	return nil
}

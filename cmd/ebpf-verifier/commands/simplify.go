package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/NickCao/ebpf-verifier/internal/log"
	"github.com/NickCao/ebpf-verifier/pkg/cache"
	"github.com/NickCao/ebpf-verifier/pkg/cfg"
	"github.com/NickCao/ebpf-verifier/pkg/program"
)

var simplifyNoCache bool

// simplifyCmd represents the simplify command
var simplifyCmd = &cobra.Command{
	Use:   "simplify <program.yaml>",
	Short: "Run structural simplification and report the result",
	Long: `Loads a YAML program description, runs the structural simplification
passes (block merging, pruning of blocks unreachable from the entry, pruning
of blocks that cannot reach the exit), and reports what changed. Results are
cached by program digest so unchanged programs are not re-analyzed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimplify(args[0])
	},
}

func runSimplify(path string) error {
	logger := log.Default()

	cfgFile, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := program.LoadFile(path)
	if err != nil {
		return err
	}

	digest := cache.Digest(c)
	store := cache.NewStore(cfgFile.CacheEntries)
	cachePath := cfgFile.CachePath()

	if !simplifyNoCache {
		if err := cache.LoadFromFile(store, cachePath); err != nil {
			logger.Warn("could not load verdict cache", "path", cachePath, "err", err)
		}
		if rec, ok := store.Get(digest); ok {
			logger.Debug("cache hit", "digest", digest)
			printRecord(rec, true)
			return nil
		}
	}

	rec := cache.Record{
		Digest:     digest,
		AnalyzedAt: time.Now(),
	}
	rec.Simplify = c.SimplifyWith(cfg.SimplifyOptions{
		Merge: cfgFile.MergeBlocks,
		Prune: cfgFile.PruneUnreachable,
	})
	rec.Blocks = c.Size()
	rec.Stats = c.CollectStats()

	if rec.Simplify.ExitUnreachable && cfgFile.RejectUnreachable {
		printRecord(rec, false)
		return fmt.Errorf("exit block is unreachable from the entry")
	}

	if !simplifyNoCache {
		store.Put(rec)
		if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err == nil {
			if err := cache.PersistToFile(store, cachePath); err != nil {
				logger.Warn("could not persist verdict cache", "path", cachePath, "err", err)
			}
		}
	}

	printRecord(rec, false)
	return nil
}

func printRecord(rec cache.Record, cached bool) {
	if cached {
		fmt.Printf("cached result from %s\n", rec.AnalyzedAt.Format(time.RFC3339))
	}
	fmt.Printf("digest:              %s\n", rec.Digest)
	fmt.Printf("blocks:              %d\n", rec.Blocks)
	fmt.Printf("statements:          %d\n", rec.Stats.Statements)
	fmt.Printf("merged:              %d\n", rec.Simplify.Merged)
	fmt.Printf("unreachable removed: %d\n", rec.Simplify.UnreachableRemoved)
	fmt.Printf("dead ends removed:   %d\n", rec.Simplify.DeadEndRemoved)
	if rec.Simplify.ExitUnreachable {
		fmt.Println("warning: exit block is unreachable from the entry")
	}
	if rec.Simplify.EntryStranded {
		fmt.Println("warning: entry block cannot reach the exit")
	}
}

func init() {
	simplifyCmd.Flags().BoolVar(&simplifyNoCache, "no-cache", false, "bypass the verdict cache")
}

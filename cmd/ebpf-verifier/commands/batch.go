package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/NickCao/ebpf-verifier/internal/log"
	"github.com/NickCao/ebpf-verifier/internal/scanner"
	"github.com/NickCao/ebpf-verifier/pkg/cache"
	"github.com/NickCao/ebpf-verifier/pkg/cfg"
	"github.com/NickCao/ebpf-verifier/pkg/program"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Analyze every program description under a directory",
	Long: `Walks a directory tree for YAML program descriptions, skipping entries
matched by .ebpfignore files, and runs structural simplification on each one.
Programs whose digest is already in the verdict cache are not re-analyzed.

Exits non-zero if any program fails to load or is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(args[0])
	},
}

func runBatch(dir string) error {
	logger := log.Default()

	cfgFile, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := scanner.Scan(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("no program descriptions found under %s\n", dir)
		return nil
	}

	store := cache.NewStore(cfgFile.CacheEntries)
	cachePath := cfgFile.CachePath()
	if err := cache.LoadFromFile(store, cachePath); err != nil {
		logger.Warn("could not load verdict cache", "path", cachePath, "err", err)
	}

	var analyzed, hits, failed int
	for _, f := range files {
		c, err := program.LoadFile(f.FullPath)
		if err != nil {
			logger.Error("load failed", "program", f.Path, "err", err)
			failed++
			continue
		}

		digest := cache.Digest(c)
		if _, ok := store.Get(digest); ok {
			logger.Debug("cache hit", "program", f.Path, "digest", digest)
			hits++
			continue
		}

		rec := cache.Record{Digest: digest, AnalyzedAt: time.Now()}
		rec.Simplify = c.SimplifyWith(cfg.SimplifyOptions{
			Merge: cfgFile.MergeBlocks,
			Prune: cfgFile.PruneUnreachable,
		})
		rec.Blocks = c.Size()
		rec.Stats = c.CollectStats()
		analyzed++

		if rec.Simplify.ExitUnreachable && cfgFile.RejectUnreachable {
			logger.Error("exit unreachable", "program", f.Path)
			failed++
			continue
		}
		store.Put(rec)
		logger.Info("analyzed", "program", f.Path,
			"blocks", rec.Blocks, "merged", rec.Simplify.Merged)
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err == nil {
		if err := cache.PersistToFile(store, cachePath); err != nil {
			logger.Warn("could not persist verdict cache", "path", cachePath, "err", err)
		}
	}

	fmt.Printf("%d programs: %d analyzed, %d cached, %d failed\n",
		len(files), analyzed, hits, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d programs failed", failed, len(files))
	}
	return nil
}

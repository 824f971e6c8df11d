package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/store"

	"github.com/spf13/cobra"
)

var flagClearCache bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Show the SQLite series cache, or clear the transaction file's entry",
	RunE:  runCache,
}

func init() {
	cacheCmd.Flags().BoolVar(&flagClearCache, "clear", false, "Drop the cached series of the transaction file")
	rootCmd.AddCommand(cacheCmd)
}

func runCache(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	dbPath := pipeline.CachePath()
	cache, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	return cacheReport(os.Stdout, cache, dbPath, cfg.Data.Transactions, flagClearCache)
}

// cacheReport prints the cache location and size. With drop set it first
// removes the entry for dataFile, so the next load reparses it.
func cacheReport(w io.Writer, cache *store.Cache, dbPath, dataFile string, drop bool) error {
	if drop {
		if err := cache.Delete(dataFile); err != nil {
			return fmt.Errorf("clearing %s: %w", dataFile, err)
		}
		fmt.Fprintf(w, "  Cleared cached series for %s\n", dataFile)
	}

	n, err := cache.FileCount()
	if err != nil {
		return fmt.Errorf("counting cached files: %w", err)
	}
	fmt.Fprintf(w, "  Cache file:   %s\n", dbPath)
	fmt.Fprintf(w, "  Cached files: %d\n", n)
	return nil
}

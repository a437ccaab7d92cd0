package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"notedeck/internal/adapters/index"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the preview index for the vault",
	Long: `Walk the vault and refresh the preview index: new and modified notes
are re-parsed, deleted notes are pruned. The TUI does this in the
background on startup; run it manually to warm the index ahead of time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx := index.NewIndex(cfg.Feed.PreviewProperty, cfg.Feed.ImageProperty)
		if err := idx.Open(cfg.VaultPath()); err != nil {
			return err
		}
		defer idx.Close()

		stats, err := idx.Sync()
		if err != nil {
			return err
		}

		fmt.Printf("scanned %d notes, updated %d, removed %d\n",
			stats.FilesScanned, stats.Updated, stats.Removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

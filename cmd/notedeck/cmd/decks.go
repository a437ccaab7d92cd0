package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"notedeck/internal/adapters/vault"
)

var decksCmd = &cobra.Command{
	Use:   "decks",
	Short: "List configured decks and their note counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := vault.NewRepository(cfg.VaultPath())

		for _, deck := range cfg.Decks {
			snapshot, err := engine.Query(deck.Port())
			if err != nil {
				return err
			}

			desc := deck.Sort
			if deck.Order == "desc" {
				desc += " desc"
			}
			if deck.Group != "" && deck.Group != "none" {
				desc += ", by " + deck.Group
			}
			if deck.Shuffle {
				desc += ", shuffled"
			}
			fmt.Printf("%-16s %4d notes  (%s)\n", deck.Name, snapshot.TotalItems(), desc)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decksCmd)
}

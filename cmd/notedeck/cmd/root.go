package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"notedeck/internal/adapters/content"
	"notedeck/internal/adapters/index"
	"notedeck/internal/adapters/tui"
	"notedeck/internal/adapters/vault"
	"notedeck/internal/config"
	"notedeck/internal/logging"
	"notedeck/internal/ports"
)

var (
	configPath string
	vaultFlag  string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "notedeck",
	Short: "Card-feed browser for a Markdown vault",
	Long: `notedeck renders an Obsidian-style Markdown vault as scrollable decks
of preview cards. Decks are configured views over the vault: filtered,
sorted, grouped, optionally shuffled.

Running without a subcommand starts the interactive feed.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if vaultFlag != "" {
			cfg.Vault = vaultFlag
		}
		if len(cfg.Decks) == 0 {
			return fmt.Errorf("no decks configured in %s", configPath)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to the config file")
	rootCmd.PersistentFlags().StringVarP(&vaultFlag, "vault", "v", "", "path to the vault (overrides config)")
}

func runTUI() error {
	log := logging.New(cfg.Log)
	vaultPath := cfg.VaultPath()

	engine := vault.NewRepository(vaultPath)
	idx := openIndex(vaultPath)
	provider := content.NewProvider(vaultPath, idx)
	sched := tui.NewScheduler()

	app := tui.NewApp(tui.Options{
		Config:    cfg,
		Engine:    engine,
		Provider:  provider,
		Index:     idx,
		Scheduler: sched,
		Logger:    log,
		VaultPath: vaultPath,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	sched.SetProgram(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("notedeck: %w", err)
	}
	return nil
}

// openIndex tries to open the preview index. The feed works without one, it
// just re-reads notes on every cache miss, so failures only cost speed.
func openIndex(vaultPath string) ports.PreviewIndex {
	idx := index.NewIndex(cfg.Feed.PreviewProperty, cfg.Feed.ImageProperty)
	if err := idx.Open(vaultPath); err != nil {
		fmt.Fprintf(os.Stderr, "warning: preview index unavailable: %v\n", err)
		return nil
	}
	return idx
}

package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/config"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the semantic search index from scratch",
	Long:  `Re-embeds every card and writes a fresh index to the data directory. Needed after switching embedding providers or when the index is out of sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		index, err := buildIndex(cfg)
		if err != nil {
			return fmt.Errorf("creating search index: %w", err)
		}
		if index == nil {
			return fmt.Errorf("no embedding provider configured, set embedding_provider in %s", cfgFile)
		}

		store, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		ctx := context.Background()
		cards, err := card.NewStore(store).All(ctx)
		if err != nil {
			return fmt.Errorf("loading cards: %w", err)
		}
		if len(cards) == 0 {
			fmt.Println("No cards to index.")
			return nil
		}

		bar := progressbar.NewOptions(len(cards),
			progressbar.OptionSetDescription("Embedding cards"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		err = index.Reindex(ctx, cards, func() {
			_ = bar.Add(1)
		})
		_ = bar.Finish()
		if err != nil {
			return fmt.Errorf("reindexing: %w", err)
		}

		if err := index.Persist(ctx, cfg.DataDir); err != nil {
			return fmt.Errorf("persisting index: %w", err)
		}
		fmt.Printf("Indexed %d cards.\n", index.Count())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

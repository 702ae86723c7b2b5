package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/config"
	"github.com/nabokov/clipd/internal/connection"
	"github.com/nabokov/clipd/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: `Exposes the card collection to AI agents over the Model Context
Protocol. Communicates over stdin/stdout, so all logging goes to stderr.
Add it to your client config:

  {
    "mcpServers": {
      "clipd": {
        "command": "clipd",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol.
		log.SetOutput(os.Stderr)
		godotenv.Load()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		store, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		index, err := buildIndex(cfg)
		if err != nil {
			log.Printf("semantic search disabled: %v", err)
			index = nil
		}
		if index != nil {
			if err := index.Load(context.Background(), cfg.DataDir); err != nil {
				log.Printf("could not load search index, search_cards will see an empty index: %v", err)
			}
		}

		mcpserver.Version = Version
		srv := mcpserver.NewServer(card.NewStore(store), connection.NewStore(store), index)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

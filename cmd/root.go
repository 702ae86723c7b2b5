package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "clipd",
	Short: "Local backend daemon for the Nabokov web clipper",
	Long: `clipd stores the cards you clip from the web, the connections
between them, and everything the canvas needs: card generation via AI
action buttons, per-card chat, beautification, expandable links and
semantic search. The browser extension talks to it over HTTP and a
websocket; AI agents connect over MCP.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".clipd.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every HTTP request")
}

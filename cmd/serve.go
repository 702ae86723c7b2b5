package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nabokov/clipd/internal/config"
	"github.com/nabokov/clipd/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the clipper daemon",
	Long:  `Starts the clipd HTTP daemon the browser extension connects to, including the websocket bridge and, when configured, the semantic search index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// API keys commonly live in a local .env during development.
		godotenv.Load()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if servePort != 0 {
			cfg.Port = servePort
		}
		cfg.Verbose = verbose
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		provider, err := buildProvider(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}

		index, err := buildIndex(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: semantic search disabled: %v\n", err)
			index = nil
		}
		if index != nil {
			if err := index.Load(context.Background(), cfg.DataDir); err != nil {
				// First run or stale index; reindex rebuilds it.
				fmt.Fprintf(os.Stderr, "Warning: could not load search index: %v\n", err)
				fmt.Fprintf(os.Stderr, "Run `clipd reindex` to rebuild it.\n")
			}
		}

		store, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := server.New(cfg, store, provider, index)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			srv.Hub().Run(gctx)
			return nil
		})
		g.Go(func() error {
			srv.SyncIndex(gctx)
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down...")
			if index != nil {
				if err := index.Persist(context.Background(), cfg.DataDir); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: persisting search index: %v\n", err)
				}
			}
			return srv.Shutdown(context.Background())
		})

		fmt.Fprintf(os.Stderr, "clipd v%s starting on %s:%d\n", Version, cfg.Host, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Data: %s\n", cfg.DataDir)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", cfg.Provider, cfg.Model)
		if index != nil {
			fmt.Fprintf(os.Stderr, "  Indexed cards: %d\n", index.Count())
		}

		if err := srv.Start(); err != nil && ctx.Err() == nil {
			return err
		}
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override the configured port")
	rootCmd.AddCommand(serveCmd)
}

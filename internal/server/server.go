// Package server assembles the clipd HTTP daemon: stores, services,
// routes and the websocket bridge.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nabokov/clipd/internal/beautify"
	"github.com/nabokov/clipd/internal/bridge"
	"github.com/nabokov/clipd/internal/capture"
	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/chat"
	"github.com/nabokov/clipd/internal/config"
	"github.com/nabokov/clipd/internal/connection"
	"github.com/nabokov/clipd/internal/generate"
	"github.com/nabokov/clipd/internal/kv"
	"github.com/nabokov/clipd/internal/links"
	"github.com/nabokov/clipd/internal/llm"
	"github.com/nabokov/clipd/internal/search"
	"github.com/nabokov/clipd/internal/settings"
	"github.com/nabokov/clipd/internal/windows"
)

// Server is the clipd daemon.
type Server struct {
	cfg      *config.Config
	store    kv.Store
	provider llm.Provider
	index    *search.Index

	cards *card.Store
	conns *connection.Store
	links *links.Store

	hub        *bridge.Hub
	router     chi.Router
	httpServer *http.Server
}

// New assembles the daemon over the given storage and LLM provider.
// index may be nil when semantic search is not configured.
func New(cfg *config.Config, store kv.Store, provider llm.Provider, index *search.Index) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		provider: provider,
		index:    index,
		cards:    card.NewStore(store),
		conns:    connection.NewStore(store),
		links:    links.NewStore(store),
	}

	s.hub = bridge.NewHub(bridge.NewRouter(), store)
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.cfg.Verbose {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Default(), NoColor: true}))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*", "chrome-extension://*", "moz-extension://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	prefs := settings.NewStore(s.store)
	wins := windows.NewStore(s.store)
	beautifier := beautify.NewService(s.cards, prefs, s.provider, s.cfg.Model)
	clipper := capture.NewService(s.cards)
	generator := generate.NewService(s.cards, s.conns, s.provider, s.cfg.Model)
	chatter := chat.NewService(s.cards, s.provider, s.cfg.Model)

	// Deleting a card cascades to its edges, links, window state and
	// index entry in the same request.
	card.RegisterRoutes(r, s.cards,
		func(req *http.Request, cardID string) error {
			return s.conns.RemoveForCard(req.Context(), cardID)
		},
		func(req *http.Request, cardID string) error {
			return s.links.DeleteForCard(req.Context(), cardID)
		},
		func(req *http.Request, cardID string) error {
			return wins.Remove(req.Context(), cardID)
		},
		func(req *http.Request, cardID string) error {
			if s.index == nil {
				return nil
			}
			return s.index.Remove(req.Context(), cardID)
		},
	)
	connection.RegisterRoutes(r, s.conns)
	links.RegisterRoutes(r, s.links)
	settings.RegisterRoutes(r, prefs)
	windows.RegisterRoutes(r, wins)
	capture.RegisterRoutes(r, clipper, func(cardID string) {
		beautifier.MaybeAuto(context.Background(), cardID)
	})
	generate.RegisterRoutes(r, generator)
	chat.RegisterRoutes(r, chatter)
	beautify.RegisterRoutes(r, beautifier)
	if s.index != nil {
		search.RegisterRoutes(r, s.index)
	}
	s.hub.RegisterRoutes(r)

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Hub returns the websocket bridge, whose Run loop the caller owns.
func (s *Server) Hub() *bridge.Hub { return s.hub }

// Cards returns the card store.
func (s *Server) Cards() *card.Store { return s.cards }

// Start begins listening on the configured address and blocks until the
// listener closes.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("clipd listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// SyncIndex wires card persistence changes into the search index: it
// watches the storage namespace and reindexes cards as they change.
// Blocks until ctx is canceled.
func (s *Server) SyncIndex(ctx context.Context) {
	if s.index == nil || !s.cfg.AutoIndex {
		return
	}

	changes, cancel := s.store.Watch()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if change.Key != kv.KeyCards {
				continue
			}
			cards, err := s.cards.All(ctx)
			if err != nil {
				log.Printf("server: reloading cards for index: %v", err)
				continue
			}
			for i := range cards {
				if err := s.index.Add(ctx, &cards[i]); err != nil {
					log.Printf("server: indexing card %s: %v", cards[i].ID, err)
				}
			}
		}
	}
}

package windows

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the floating-window API.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/windows", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Get("/{cardId}", handleGet(store))
		r.Put("/{cardId}", handleSave(store))
		r.Delete("/{cardId}", handleRemove(store))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := store.All(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if all == nil {
			all = []State{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(all)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.Get(r.Context(), chi.URLParam(r, "cardId"))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if st == nil {
			http.Error(w, `{"error":"no open window"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(st)
	}
}

func handleSave(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st State
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		st.CardID = chi.URLParam(r, "cardId")

		saved, err := store.Save(r.Context(), st)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(saved)
	}
}

func handleRemove(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Remove(r.Context(), chi.URLParam(r, "cardId")); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "closed"})
	}
}

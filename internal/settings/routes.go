package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the settings API.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/settings", handleGet(store))
	r.Put("/api/settings", handlePut(store))
	r.Get("/api/settings/font-size", handleGetFontSize(store))
	r.Put("/api/settings/font-size", handlePutFontSize(store))
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.Get(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s)
	}
}

func handlePut(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Start from current effective settings so a partial body only
		// changes the fields it names.
		current, err := store.Get(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&current); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if err := store.Save(r.Context(), current); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(current)
	}
}

type fontSizeBody struct {
	FontSize FontSize `json:"fontSize"`
}

func handleGetFontSize(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := store.GetFontSize(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"fontSize": f,
			"pixels":   FontSizePixels[f],
		})
	}
}

func handlePutFontSize(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body fontSizeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if err := store.SetFontSize(r.Context(), body.FontSize); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}
}

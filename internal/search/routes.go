package search

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the search API.
func RegisterRoutes(r chi.Router, ix *Index) {
	r.Get("/api/search", handleSearch(ix))
}

func handleSearch(ix *Index) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			http.Error(w, `{"error":"q is required"}`, http.StatusBadRequest)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		var filter *Filter
		cardType := r.URL.Query().Get("type")
		domain := r.URL.Query().Get("domain")
		if cardType != "" || domain != "" {
			filter = &Filter{CardType: cardType, Domain: domain}
		}

		results, err := ix.Search(r.Context(), query, limit, filter)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if results == nil {
			results = []Result{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}
}

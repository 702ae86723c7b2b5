package beautify

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nabokov/clipd/internal/card"
)

// RegisterRoutes mounts the beautification API.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/api/cards/{id}/beautify", handleBeautify(svc))
	r.Post("/api/cards/{id}/beautify/revert", handleRevert(svc))
}

type beautifyRequest struct {
	Mode card.BeautificationMode `json:"mode,omitempty"`
}

func handleBeautify(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req beautifyRequest
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req)
		}

		saved, err := svc.Beautify(r.Context(), chi.URLParam(r, "id"), req.Mode)
		switch {
		case errors.Is(err, ErrCardNotFound):
			http.Error(w, `{"error":"card not found"}`, http.StatusNotFound)
			return
		case errors.Is(err, ErrNoContent), errors.Is(err, ErrUnsupportedMode):
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(saved)
	}
}

func handleRevert(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saved, err := svc.Revert(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, ErrCardNotFound):
			http.Error(w, `{"error":"card not found"}`, http.StatusNotFound)
			return
		case errors.Is(err, ErrNotBeautified):
			http.Error(w, `{"error":"card is not beautified"}`, http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(saved)
	}
}

package generate

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nabokov/clipd/internal/button"
)

// RegisterRoutes mounts the card generation API and the button catalog.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/buttons", handleListButtons)
	r.Post("/api/cards/{id}/generate", handleGenerate(svc))
}

func handleListButtons(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(button.Defaults)
}

type generateRequest struct {
	ButtonID      string `json:"buttonId"`
	CustomContext string `json:"customContext"`
}

func handleGenerate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		btn := button.ByID(req.ButtonID)
		if btn == nil {
			http.Error(w, `{"error":"unknown button"}`, http.StatusNotFound)
			return
		}

		newCard, err := svc.FromButton(r.Context(), id, *btn, req.CustomContext)
		switch {
		case errors.Is(err, ErrCardNotFound):
			http.Error(w, `{"error":"card not found"}`, http.StatusNotFound)
			return
		case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrButtonDisabled):
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(newCard)
	}
}

package capture

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nabokov/clipd/internal/screenshot"
)

// RegisterRoutes mounts the clip intake endpoint. onClip hooks run in
// the background after a successful clip; the response never waits on
// them.
func RegisterRoutes(r chi.Router, svc *Service, onClip ...func(cardID string)) {
	r.Post("/api/clip", handleClip(svc, onClip))
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: msg, Code: code})
}

func handleClip(svc *Service, onClip []func(cardID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", "")
			return
		}

		if err := p.Element.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), screenshot.CodeInvalidElement)
			return
		}
		if err := p.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "")
			return
		}

		saved, err := svc.Clip(r.Context(), p)
		if err != nil {
			var serr *screenshot.Error
			if errors.As(err, &serr) {
				writeError(w, http.StatusBadRequest, serr.Msg, serr.Code)
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error(), "")
			return
		}

		for _, hook := range onClip {
			go hook(saved.ID)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(saved)
	}
}

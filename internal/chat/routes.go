package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the chat API. Replies stream as server-sent
// events; the stop endpoint cancels a stream in flight.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/api/cards/{id}/chat", handleSend(svc))
	r.Post("/api/cards/{id}/chat/stop", handleStop(svc))
}

type sendRequest struct {
	Message string `json:"message"`
}

type eventBody struct {
	Text  string `json:"text,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

func handleSend(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		chunks, err := svc.Send(r.Context(), chi.URLParam(r, "id"), req.Message)
		switch {
		case errors.Is(err, ErrCardNotFound):
			http.Error(w, `{"error":"card not found"}`, http.StatusNotFound)
			return
		case errors.Is(err, ErrEmptyMessage):
			http.Error(w, `{"error":"message is empty"}`, http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadGateway)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		enc := json.NewEncoder(w)
		for chunk := range chunks {
			body := eventBody{Text: chunk.Text, Done: chunk.Done}
			if chunk.Err != nil {
				body.Error = chunk.Err.Error()
			}
			w.Write([]byte("data: "))
			enc.Encode(body)
			w.Write([]byte("\n"))
			flusher.Flush()
		}
	}
}

func handleStop(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stopped := svc.Stop(chi.URLParam(r, "id"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"stopped": stopped})
	}
}

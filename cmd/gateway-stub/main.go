// Command gateway-stub is a minimal payment-intents endpoint for local
// stacks and integration tests. Every created intent immediately reports
// the status given by STUB_INTENT_STATUS (default succeeded).
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

type intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

type server struct {
	status string

	mu      sync.Mutex
	intents map[string]intent
	seq     atomic.Int64
}

func (s *server) createIntent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	// The real API posts metadata as metadata[key]=value form fields.
	metadata := make(map[string]string)
	for key, values := range r.PostForm {
		if strings.HasPrefix(key, "metadata[") && strings.HasSuffix(key, "]") && len(values) > 0 {
			metadata[key[len("metadata["):len(key)-1]] = values[0]
		}
	}

	id := fmt.Sprintf("pi_stub_%d", s.seq.Add(1))
	in := intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       s.status,
		Metadata:     metadata,
	}

	s.mu.Lock()
	s.intents[id] = in
	s.mu.Unlock()

	slog.Info("intent created",
		slog.String("id", id),
		slog.String("amount", r.PostFormValue("amount")),
		slog.String("currency", r.PostFormValue("currency")),
	)
	writeJSON(w, http.StatusOK, in)
}

func (s *server) retrieveIntent(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/payment_intents/")

	s.mu.Lock()
	in, ok := s.intents[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]string{"message": "no such payment_intent: " + id},
		})
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	addr := os.Getenv("STUB_ADDR")
	if addr == "" {
		addr = "0.0.0.0:12111"
	}
	status := os.Getenv("STUB_INTENT_STATUS")
	if status == "" {
		status = "succeeded"
	}

	s := &server{status: status, intents: make(map[string]intent)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/payment_intents", s.createIntent)
	mux.HandleFunc("GET /v1/payment_intents/", s.retrieveIntent)

	slog.Info("gateway stub listening", slog.String("addr", addr), slog.String("status", status))
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("gateway stub failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

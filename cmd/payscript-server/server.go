package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"payscript/pkg/payscript"
)

// server wraps the runtime with the HTTP surface.
type server struct {
	runtime *payscript.Runtime
}

func newServer(runtime *payscript.Runtime) *server {
	return &server{runtime: runtime}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /execute", s.handleExecute)
	mux.HandleFunc("POST /requests", s.handleRequests)
	mux.HandleFunc("GET /streams", s.handleListStreams)
	mux.HandleFunc("GET /streams/{name}", s.handleGetStream)
	mux.HandleFunc("PUT /streams/{name}", s.handlePutStream)
	mux.HandleFunc("DELETE /streams/{name}", s.handleDeleteStream)
	mux.HandleFunc("POST /streams/{name}/execute", s.handleExecuteStream)
	return withCORS(mux)
}

// withCORS answers preflight requests and marks responses for browser use.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resultResponse pairs variable names with their final values, in slot order.
type resultResponse struct {
	Names  []string          `json:"names"`
	Values []payscript.Value `json:"values"`
}

type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Status: status, Message: fmt.Sprintf(format, args...)})
}

func decodeEvents(r *http.Request) ([]payscript.CodedEvent, error) {
	var events []payscript.CodedEvent
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("invalid event stream: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("event stream is empty")
	}
	return events, nil
}

func (s *server) evaluate(w http.ResponseWriter, events []payscript.CodedEvent) {
	names, err := s.runtime.VariableNames(events)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	values, err := s.runtime.RunEvents(events)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Names: names, Values: values})
}

func (s *server) handleExecute(w http.ResponseWriter, r *http.Request) {
	events, err := decodeEvents(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	s.evaluate(w, events)
}

func (s *server) handleRequests(w http.ResponseWriter, r *http.Request) {
	events, err := decodeEvents(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	reqs, err := s.runtime.MarketRequests(events)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (s *server) handleListStreams(w http.ResponseWriter, r *http.Request) {
	names, err := s.runtime.ListStreams()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *server) handleGetStream(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	events, err := s.runtime.LoadStream(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if events == nil {
		writeError(w, http.StatusNotFound, "no event stream named %q", name)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *server) handlePutStream(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	events, err := decodeEvents(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	// Reject streams that will not compile rather than storing them broken.
	if _, err := s.runtime.VariableNames(events); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if err := s.runtime.SaveStream(name, events); err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDeleteStream(w http.ResponseWriter, r *http.Request) {
	if err := s.runtime.DeleteStream(r.PathValue("name")); err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleExecuteStream(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	events, err := s.runtime.LoadStream(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if events == nil {
		writeError(w, http.StatusNotFound, "no event stream named %q", name)
		return
	}
	s.evaluate(w, events)
}

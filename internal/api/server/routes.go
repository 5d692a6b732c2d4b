package server

import "net/http"

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /stream-code", s.streamCodeHandler)
	mux.HandleFunc("GET /current-session", s.currentSessionHandler)
	mux.HandleFunc("POST /current-session", s.setCurrentSessionHandler)
	mux.HandleFunc("POST /sessions", s.createSessionHandler)
	mux.HandleFunc("GET /sessions", s.listSessionsHandler)
	mux.HandleFunc("POST /reset-session", s.resetSessionHandler)
	mux.HandleFunc("GET /session/{id}", s.sessionHistoryHandler)
	mux.HandleFunc("POST /autocomplete", s.autocompleteHandler)
	mux.HandleFunc("POST /manage-model", s.manageModelHandler)
	mux.HandleFunc("GET /status", statusHandler)
}

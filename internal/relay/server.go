package relay

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Server wires the hub into an HTTP router.
type Server struct {
	router chi.Router
	hub    *Hub
}

func NewServer(hub *Hub) *Server {
	s := &Server{router: chi.NewRouter(), hub: hub}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Route("/v1/matches", func(r chi.Router) {
		r.Post("/", s.createMatch)
		r.Get("/{matchID}", s.getMatch)
		r.Get("/{matchID}/ws", s.hub.ServeWS)
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// createMatch hands out a fresh match id. Rooms are created lazily on the
// first connection.
func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"matchId": uuid.NewString()})
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	info, ok := s.hub.Room(chi.URLParam(r, "matchID"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "match not found"})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

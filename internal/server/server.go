// Package server exposes the state tree to remote clients over HTTP and
// websocket. This is the thin collaborator surface: the engine never sees
// a request, only the tree and the hub.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"codeberg.org/varken/sensorbridge/internal/errors"
	"codeberg.org/varken/sensorbridge/internal/logger"
	"codeberg.org/varken/sensorbridge/internal/statetree"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The tree is served on a trusted operations network
	CheckOrigin: func(*http.Request) bool { return true },
}

type Server struct {
	listen string
	tree   *statetree.Tree
	hub    *Hub
	http   *http.Server
}

func New(listen string, tree *statetree.Tree, hub *Hub) *Server {
	return &Server{listen: listen, tree: tree, hub: hub}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/v1/tree", s.handleTree)
	r.Get("/api/v1/tree/{group}/{slot}", s.handleSlotRead)
	r.Put("/api/v1/tree/{group}/{slot}", s.handleSlotWrite)
	r.Get("/ws", s.handleWebSocket)

	return r
}

// Start binds the listener and begins serving in the background. A bind
// failure is surfaced synchronously so the caller can treat it as fatal.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return errors.Wrap(ErrBindFailed, err)
	}

	s.http = &http.Server{Handler: s.Router()}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("state tree server stopped")
		}
	}()

	logger.Info().Str("listen", ln.Addr().String()).Msg("state tree server started")

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	if err := s.http.Shutdown(ctx); err != nil {
		return errors.Wrap(ErrShutdownFailed, err)
	}

	return nil
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tree.Snapshot())
}

func (s *Server) handleSlotRead(w http.ResponseWriter, r *http.Request) {
	slot, ok := s.tree.Lookup(chi.URLParam(r, "group"), chi.URLParam(r, "slot"))
	if !ok {
		http.Error(w, "no such slot", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"value": slot.Value()})
}

// handleSlotWrite lets remote clients override writable slots for test
// purposes. The engine does not validate the value and overwrites it on
// the next cycle; last writer wins.
func (s *Server) handleSlotWrite(w http.ResponseWriter, r *http.Request) {
	slot, ok := s.tree.Lookup(chi.URLParam(r, "group"), chi.URLParam(r, "slot"))
	if !ok {
		http.Error(w, "no such slot", http.StatusNotFound)
		return
	}
	if !slot.Writable() {
		http.Error(w, "slot is not writable", http.StatusForbidden)
		return
	}

	var body struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	slot.Write(body.Value)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{hub: s.hub, conn: conn, send: make(chan []byte, 16)}
	if !s.hub.add(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug().Err(err).Msg("failed to encode response")
	}
}

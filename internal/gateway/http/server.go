// Package http exposes the supervisor's command surface as a small
// JSON-over-HTTP RPC gateway, in the style of the teacher codebase's
// CiA 309-5 gateway: a route map keyed by path, a default handler that
// dispatches into it, and a doneWriter wrapped around each response.
package http

import (
	"encoding/json"
	"net"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/rockit-astro/domed/internal/config"
	"github.com/rockit-astro/domed/pkg/supervisor"
)

// requestHandler mirrors the teacher gateway's HTTPRequestHandler: a route
// is handed the already-authorized flag so every handler enforces the
// control-IP allowlist the same way.
type requestHandler func(w doneWriter, r *http.Request, authorized bool)

// doneWriter records whether a response has been written through it.
// Handlers receive it by value and the dispatcher does not read the flag,
// so no default response is written when a handler writes nothing.
type doneWriter struct {
	http.ResponseWriter
	done bool
}

func (w *doneWriter) WriteHeader(status int) {
	w.done = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *doneWriter) Write(b []byte) (int, error) {
	w.done = true
	return w.ResponseWriter.Write(b)
}

// Server is the dome daemon's RPC surface.
type Server struct {
	sup      *supervisor.Supervisor
	cfg      *config.View
	serveMux *http.ServeMux
	routes   map[string]requestHandler
	logger   *log.Logger
}

// NewServer wires every spec §4.5–§4.10 operation to a route. It does not
// start listening; call [Server.ListenAndServe].
func NewServer(sup *supervisor.Supervisor, cfg *config.View, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &Server{
		sup:      sup,
		cfg:      cfg,
		serveMux: http.NewServeMux(),
		routes:   make(map[string]requestHandler),
		logger:   logger,
	}

	s.addRoute("/status", s.handleStatus)
	s.addRoute("/open_shutters", s.handleOpen)
	s.addRoute("/close_shutters", s.handleClose)
	s.addRoute("/stop", s.handleStop)
	s.addRoute("/engineering_mode", s.handleEngineeringMode)
	s.addRoute("/heartbeat/timer", s.handleHeartbeatTimer)
	s.addRoute("/heartbeat/siren", s.handleHeartbeatSiren)

	s.serveMux.HandleFunc("/", s.dispatch)
	return s
}

func (s *Server) addRoute(path string, h requestHandler) {
	s.routes[path] = h
}

// ListenAndServe starts the HTTP server on addr, blocking until it exits.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Infof("[HTTP] listening on %s", addr)
	return http.ListenAndServe(addr, s.serveMux)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	route, ok := s.routes[r.URL.Path]
	dw := doneWriter{ResponseWriter: w}
	if !ok {
		s.logger.Debugf("[HTTP] no route for %s", r.URL.Path)
		writeJSON(&dw, http.StatusNotFound, errorResponse{Error: "unknown route"})
		return
	}
	route(dw, r, s.cfg.Authorized(remoteIP(r)))
}

// remoteIP extracts the caller's address, stripping the port. Falls back to
// the raw RemoteAddr if it isn't in host:port form (e.g. a unix socket).
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("[HTTP] encoding response: %v", err)
	}
}

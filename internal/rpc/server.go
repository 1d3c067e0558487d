package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/cors"
)

const proofHeader = "X-DVRPC-Proof"

// Server is the JSON-RPC HTTP front-end: POST / dispatches to the API,
// GET /health reports whether C7 has an authenticated head.
type Server struct {
	api     *API
	health  *HealthHandler
	handler http.Handler
	addr    string
	httpSrv *http.Server
}

// NewServer wraps api behind a CORS-enabled mux, listening on addr once
// Start is called. health may be nil, in which case /health always
// reports healthy.
func NewServer(api *API, health *HealthHandler, allowedOrigins []string) *Server {
	if health == nil {
		health = NewHealthHandler(nil)
	}
	s := &Server{api: api, health: health}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRPC)
	mux.HandleFunc("/health", health.ServeHTTP)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", proofHeader},
	})
	s.handler = c.Handler(mux)
	return s
}

// Handler returns the server's http.Handler, ready to pass to
// http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen sets the address Start will bind to. Must be called before
// Start when the Server is used as a node.Service.
func (s *Server) Listen(addr string) {
	s.addr = addr
}

// Name implements node.Service.
func (s *Server) Name() string { return "rpc-server" }

// Start implements node.Service: it binds addr and serves in the
// background. It returns the listen error if ListenAndServe fails within
// 50ms, and nil otherwise.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{Addr: s.addr, Handler: s.handler}
	errCh := make(chan error, 1)
	go func() { errCh <- s.httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("rpc: listen %s: %w", s.addr, err)
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// Stop implements node.Service: it shuts the HTTP server down gracefully.
func (s *Server) Stop() error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, errorResponse(nil, ErrCodeInvalidParams, "failed to read request body"))
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, errorResponse(nil, ErrCodeInvalidParams, "invalid JSON"))
		return
	}

	withProof := r.Header.Get(proofHeader) == "true"
	resp := s.api.HandleRequest(r.Context(), &req, withProof)
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

package network

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/luca-patrignani/chain-verifier/ledger"
	"github.com/luca-patrignani/chain-verifier/verifier"
	"github.com/luca-patrignani/chain-verifier/wire"
)

const (
	kindNotFound   = "not_found"
	kindBadRequest = "bad_request"

	// ContentTypeProtobuf is served by GET /snapshot.
	ContentTypeProtobuf = "application/x-protobuf"

	shutdownTimeout = 5 * time.Second
)

// Server serves a single ledger.
type Server struct {
	ledger    *ledger.Ledger
	logger    *slog.Logger
	tlsConfig *tls.Config
}

type ServerOption func(*Server)

func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCertificate makes the server terminate TLS with cert.
func WithCertificate(cert tls.Certificate) ServerOption {
	return func(s *Server) {
		if s.tlsConfig == nil {
			s.tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		s.tlsConfig.Certificates = append(s.tlsConfig.Certificates, cert)
	}
}

func NewServer(l *ledger.Ledger, opts ...ServerOption) *Server {
	s := &Server{
		ledger: l,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DataRequest is the body of POST /blocks and PUT /blocks/{index}.
type DataRequest struct {
	Data string `json:"data"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Handler returns the routes of the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /blocks", s.handleList)
	mux.HandleFunc("POST /blocks", s.handleAppend)
	mux.HandleFunc("PUT /blocks/{index}", s.handleTamper)
	mux.HandleFunc("POST /inspect", s.handleInspect)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	return s.withRequestID(mux)
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	if s.tlsConfig != nil {
		l = tls.NewListener(l, s.tlsConfig)
	}
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve(l)
	}()
	s.logger.Info("server listening", "address", l.Addr().String(), "tls", s.tlsConfig != nil)

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("server stopped")
		return nil
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wire.EntriesToJSON(s.ledger.Entries()))
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	var req DataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("invalid JSON: "+err.Error()))
		return
	}
	b, err := s.ledger.Append(req.Data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wire.BlockToJSON(b))
}

func (s *Server) handleTamper(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, badRequest("index must be an integer"))
		return
	}
	var req DataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("invalid JSON: "+err.Error()))
		return
	}
	if err := s.ledger.Tamper(index, req.Data); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.Inspect()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.EntriesToJSON(entries))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	entries := s.ledger.Entries()
	data, err := wire.EncodeSnapshot(verifier.Repaired(entries), verifier.Statuses(entries))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", ContentTypeProtobuf)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type requestError struct {
	kind    string
	message string
}

func (e *requestError) Error() string { return e.message }
func (e *requestError) Kind() string  { return e.kind }

func badRequest(message string) error {
	return &requestError{kind: kindBadRequest, message: message}
}

func writeError(w http.ResponseWriter, err error) {
	kind := verifier.Kind(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrIndexOutOfRange):
		kind, status = kindNotFound, http.StatusNotFound
	case kind == kindBadRequest, kind == verifier.KindInvalidInput:
		status = http.StatusBadRequest
	case kind == verifier.KindMalformedChain:
		status = http.StatusConflict
	}
	writeJSON(w, status, ErrorResponse{Kind: kind, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

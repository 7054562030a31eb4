package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/walletroast/walletroast/internal/logging"
	"github.com/walletroast/walletroast/internal/metrics"
	"github.com/walletroast/walletroast/internal/models"
)

const (
	requestTimeout = 300 * time.Second
	maxBodyBytes   = 1 << 20
	requestIDKey   = "X-Request-ID"
)

// Service is the set of pipeline operations the API exposes
type Service interface {
	AssessToken(ctx context.Context, req models.AssessTokenRequest) (*models.AssessmentResult, error)
	InterpretTransaction(ctx context.Context, req models.InterpretRequest) (*models.InterpretationResult, error)
	WalletProfile(ctx context.Context, req models.WalletRequest) (*models.WalletProfile, error)
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error)
	Simulate(ctx context.Context, req models.InterpretRequest) (*models.SimulationReport, error)
}

// Server represents the API server
type Server struct {
	router  *mux.Router
	service Service
	logger  zerolog.Logger
	address string
	server  *http.Server
}

// NewServer creates a new API server
func NewServer(address string, service Service, logger zerolog.Logger) *Server {
	server := &Server{
		router:  mux.NewRouter(),
		service: service,
		logger:  logger,
		address: address,
	}

	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(metrics.Middleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")

	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/networks", s.handleGetNetworks).Methods("GET")
	v1.HandleFunc("/roast", s.handleRoast).Methods("POST", "OPTIONS")
	v1.HandleFunc("/simulate", s.handleSimulate).Methods("POST", "OPTIONS")
	v1.HandleFunc("/interpret", s.handleInterpret).Methods("POST", "OPTIONS")
	v1.HandleFunc("/criminal-record", s.handleCriminalRecord).Methods("POST", "OPTIONS")
	v1.HandleFunc("/chat", s.handleChat).Methods("POST", "OPTIONS")
}

// handleHealth returns the health status of the service
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "walletroast",
	})
}

// handleGetNetworks returns the list of supported networks
func (s *Server) handleGetNetworks(w http.ResponseWriter, r *http.Request) {
	networks := models.ListNetworks()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"networks": networks,
		"count":    len(networks),
	})
}

func (s *Server) handleRoast(w http.ResponseWriter, r *http.Request) {
	var request models.AssessTokenRequest
	if !s.decodeRequest(w, r, &request) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := s.service.AssessToken(ctx, request)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// simulateResponse splits the simulated changes by direction for display
type simulateResponse struct {
	Simulation *models.SimulationReport `json:"simulation"`
	Lost       []models.AssetChange     `json:"lost"`
	Gained     []models.AssetChange     `json:"gained"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var request models.InterpretRequest
	if !s.decodeRequest(w, r, &request) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := s.service.Simulate(ctx, request)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, simulateResponse{
		Simulation: report,
		Lost:       report.Lost(),
		Gained:     report.Gained(),
	})
}

func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	var request models.InterpretRequest
	if !s.decodeRequest(w, r, &request) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := s.service.InterpretTransaction(ctx, request)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCriminalRecord(w http.ResponseWriter, r *http.Request) {
	var request models.WalletRequest
	if !s.decodeRequest(w, r, &request) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	profile, err := s.service.WalletProfile(ctx, request)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var request models.ChatRequest
	if !s.decodeRequest(w, r, &request) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	reply, err := s.service.Chat(ctx, request)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// decodeRequest reads a size-limited JSON body into dst, writing a 400 on failure
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, r, models.NewInvalidInputError("invalid request body"))
		return false
	}
	return true
}

type errorBody struct {
	Kind    models.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// writeError maps an error to its status code and a {error:{kind,message}}
// body. Internal details are logged, never returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Kind: models.KindOf(err), Message: "internal error"}

	var pipelineErr *models.Error
	if errors.As(err, &pipelineErr) && pipelineErr.Kind != models.KindInternal {
		body.Message = pipelineErr.Message
	}
	if status == http.StatusGatewayTimeout {
		body.Message = "request timed out"
	}

	event := logging.L(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logging.L(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Str("kind", string(body.Kind)).Msg("request failed")

	writeJSON(w, status, map[string]errorBody{"error": body})
}

func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch models.KindOf(err) {
	case models.KindInvalidInput:
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent, nothing left to report to the client
		w.Write([]byte(`{"error":{"kind":"INTERNAL","message":"failed to encode response"}}`))
	}
}

// requestIDMiddleware attaches a request-scoped logger carrying the request ID
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDKey, requestID)

		ctx := s.logger.WithContext(r.Context())
		ctx = logging.WithRequestID(ctx, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoveryMiddleware catches panics and returns proper JSON error responses
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			if rec := recover(); rec != nil {
				logging.L(r.Context()).Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Msg("panic while serving request")

				if !wrapped.wroteHeader {
					s.writeError(wrapped, r, fmt.Errorf("panic: %v", rec))
				}
			}
		}()

		next.ServeHTTP(wrapped, r)
	})
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logging.L(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      requestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("address", s.address).Msg("starting walletroast API server")
	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("shutting down walletroast API server")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	return nil
}

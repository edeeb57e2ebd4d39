package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"optionfarm/native/farm"
	"optionfarm/native/optionvault"
	"optionfarm/native/token"
	"optionfarm/observability/metrics"
)

// Server exposes the farm engine and the option vault over JSON-RPC 2.0.
// Mutating farm administration methods require the bearer token configured at
// construction; participant-facing methods are open.
//
// Trust model: participant methods name the acting address as a request
// parameter and the server does not authenticate it. Every transfer still
// settles to the named address, so an unauthenticated caller can trigger a
// harvest, withdrawal or exercise for someone else but can never redirect
// the proceeds. Deployments that must bind the actor to a verified identity
// front this endpoint with an authenticating gateway.
type Server struct {
	engine  *farm.Engine
	vault   *optionvault.Vault
	logger  *slog.Logger
	metrics *metrics.FarmMetrics

	authToken string
}

// NewServer wires a JSON-RPC server around the engine and vault. authToken
// guards the admin methods; an empty token disables them entirely.
func NewServer(engine *farm.Engine, vault *optionvault.Vault, authToken string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    engine,
		vault:     vault,
		logger:    logger,
		metrics:   metrics.Farm(),
		authToken: strings.TrimSpace(authToken),
	}
}

// Router assembles the HTTP surface: the RPC endpoint, Prometheus metrics and
// a liveness probe.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Post("/", s.handleRPC)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != jsonRPCVersion || strings.TrimSpace(req.Method) == "" {
		writeError(w, req.ID, codeInvalidRequest, "jsonrpc must be \"2.0\" with a method")
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, req.ID, codeMethodNotFound, "method not found: "+req.Method)
		return
	}
	if adminMethods[req.Method] && !s.authorized(r) {
		s.logger.Warn("unauthorized rpc call", "method", req.Method, "remote", r.RemoteAddr)
		writeError(w, req.ID, codeUnauthorized, "unauthorized")
		return
	}

	result, rpcErr := handler(req.Params)
	if rpcErr != nil {
		s.logger.Info("rpc call failed", "method", req.Method, "code", rpcErr.Code, "error", rpcErr.Message)
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	writeResult(w, req.ID, result)
}

type methodFunc func(params json.RawMessage) (any, *rpcError)

var adminMethods = map[string]bool{
	"farm_addPool":       true,
	"farm_setPoolWeight": true,
}

func (s *Server) methods() map[string]methodFunc {
	return map[string]methodFunc{
		"farm_addPool":       s.farmAddPool,
		"farm_setPoolWeight": s.farmSetPoolWeight,
		"farm_deposit":       s.farmDeposit,
		"farm_withdraw":      s.farmWithdraw,
		"farm_pendingReward": s.farmPendingReward,
		"farm_isRegistered":  s.farmIsRegistered,
		"farm_getPool":       s.farmGetPool,
		"option_get":         s.optionGet,
		"option_ownerOf":     s.optionOwnerOf,
		"option_transfer":    s.optionTransfer,
		"option_exercise":    s.optionExercise,
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	presented := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return subtle.ConstantTimeCompare([]byte(presented), []byte(s.authToken)) == 1
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	writeRPCError(w, id, &rpcError{Code: code, Message: message})
}

func writeRPCError(w http.ResponseWriter, id json.RawMessage, rpcErr *rpcError) {
	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	switch rpcErr.Code {
	case codeParseError, codeInvalidRequest, codeInvalidParams:
		status = http.StatusBadRequest
	case codeUnauthorized:
		status = http.StatusUnauthorized
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Error: rpcErr})
}

// domainError maps engine and vault sentinels onto RPC error codes. Validation
// failures surface as invalid params; everything else is a server error.
func domainError(err error) *rpcError {
	code := codeServerError
	switch {
	case errors.Is(err, farm.ErrInvalidAmount),
		errors.Is(err, farm.ErrPoolNotFound),
		errors.Is(err, farm.ErrDuplicatePool),
		errors.Is(err, farm.ErrInsufficientStake),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, optionvault.ErrClaimNotFound),
		errors.Is(err, optionvault.ErrNotOwner),
		errors.Is(err, optionvault.ErrAlreadyExercised),
		errors.Is(err, optionvault.ErrNotVested),
		errors.Is(err, optionvault.ErrBadPayment),
		errors.Is(err, optionvault.ErrUnfundedPayment),
		errors.Is(err, optionvault.ErrInvalidRecipient),
		errors.Is(err, optionvault.ErrInvalidAmount):
		code = codeInvalidParams
	}
	return &rpcError{Code: code, Message: err.Error()}
}

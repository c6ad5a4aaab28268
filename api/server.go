// Package api - Storefront session API
// The API is only responsible for session management, input validation, and
// serialization. Cart logic lives in core/checkout; the API never talks to
// the commerce backend directly.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"challenge-checkout/core/catalog"
	"challenge-checkout/core/checkout"
	"challenge-checkout/core/commerce"
	"challenge-checkout/internal/config"
	"challenge-checkout/internal/errors"
	"challenge-checkout/internal/logging"
)

// BackendFactory creates one commerce backend per checkout session. Each
// session needs its own backend because the remote cart is scoped to the
// backend session cookie.
type BackendFactory func() (checkout.Backend, error)

// session is one buyer's checkout flow
type session struct {
	id         string
	reconciler *checkout.Reconciler

	mu      sync.Mutex
	notices []checkout.Notice
}

// drainNotices returns and clears the buffered notices
func (s *session) drainNotices() []checkout.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// Server is the storefront API server
type Server struct {
	mux     *http.ServeMux
	version string
	catalog *catalog.Catalog
	factory BackendFactory
	log     *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer creates an API server backed by the configured commerce backend
func NewServer(version string, cfg *config.Config, cat *catalog.Catalog) *Server {
	commerceCfg := cfg.Commerce
	return NewServerWithFactory(version, cat, func() (checkout.Backend, error) {
		return commerce.NewClient(commerceCfg)
	})
}

// NewServerWithFactory creates an API server with a custom backend factory
func NewServerWithFactory(version string, cat *catalog.Catalog, factory BackendFactory) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		version:  version,
		catalog:  cat,
		factory:  factory,
		log:      logging.With(zap.String("component", "api")),
		sessions: make(map[string]*session),
	}
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /sessions/{id}", s.handleSessionState)
	s.mux.HandleFunc("PUT /sessions/{id}/selection", s.handleSelection)
	s.mux.HandleFunc("POST /sessions/{id}/coupon", s.handleApplyCoupon)
	s.mux.HandleFunc("DELETE /sessions/{id}/coupon", s.handleRemoveCoupon)
	s.mux.HandleFunc("POST /sessions/{id}/checkout", s.handleCheckout)

	s.mux.HandleFunc("GET /catalog", s.handleCatalog)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// handleCreateSession handles POST /sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	backend, err := s.factory()
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}

	sess := &session{
		id:         uuid.NewString(),
		reconciler: checkout.NewReconciler(backend, s.catalog),
	}
	sess.reconciler.OnNotice(func(n checkout.Notice) {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		sess.notices = append(sess.notices, n)
	})

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.log.Info("session created", zap.String("session_id", sess.id))
	s.writeJSON(w, http.StatusCreated, CreateSessionResponse{SessionID: sess.id})
}

// handleSessionState handles GET /sessions/{id}. With ?wait=true the reply
// is delayed until every in-flight reconciliation settles.
func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	sess, ok := s.session(r)
	if !ok {
		s.writeError(w, requestID, errors.NotFound("session", r.PathValue("id")))
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		if err := sess.reconciler.Wait(r.Context()); err != nil {
			s.writeError(w, requestID, errors.Wrap(errors.TypeInternal, "waiting for reconciliation", err))
			return
		}
	}

	s.writeJSON(w, http.StatusOK, s.state(sess))
}

// handleSelection handles PUT /sessions/{id}/selection
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	sess, ok := s.session(r)
	if !ok {
		s.writeError(w, requestID, errors.NotFound("session", r.PathValue("id")))
		return
	}

	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, requestID, errors.Wrap(errors.TypeValidation, "invalid JSON body", err))
		return
	}

	sel, err := req.toSelection()
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}

	// The reconciliation outlives this request; detach it from the
	// request context so closing the connection does not abort the sync.
	sess.reconciler.SetSelection(context.WithoutCancel(r.Context()), sel)
	s.writeJSON(w, http.StatusOK, s.state(sess))
}

// handleApplyCoupon handles POST /sessions/{id}/coupon
func (s *Server) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	sess, ok := s.session(r)
	if !ok {
		s.writeError(w, requestID, errors.NotFound("session", r.PathValue("id")))
		return
	}

	var req CouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, requestID, errors.Wrap(errors.TypeValidation, "invalid JSON body", err))
		return
	}

	if err := sess.reconciler.ApplyCoupon(r.Context(), req.Code); err != nil {
		s.writeError(w, requestID, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.state(sess))
}

// handleRemoveCoupon handles DELETE /sessions/{id}/coupon
func (s *Server) handleRemoveCoupon(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	sess, ok := s.session(r)
	if !ok {
		s.writeError(w, requestID, errors.NotFound("session", r.PathValue("id")))
		return
	}

	if err := sess.reconciler.RemoveCoupons(r.Context()); err != nil {
		s.writeError(w, requestID, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.state(sess))
}

// handleCheckout handles POST /sessions/{id}/checkout. On success the
// buyer is handed off to the returned redirect URL; the session is done.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	sess, ok := s.session(r)
	if !ok {
		s.writeError(w, requestID, errors.NotFound("session", r.PathValue("id")))
		return
	}

	// Checkout needs the reconciled cart, not a half-synced one
	if err := sess.reconciler.Wait(r.Context()); err != nil {
		s.writeError(w, requestID, errors.Wrap(errors.TypeInternal, "waiting for reconciliation", err))
		return
	}

	resp, err := sess.reconciler.Checkout(r.Context())
	if err != nil {
		s.writeError(w, requestID, err)
		return
	}

	s.writeJSON(w, http.StatusOK, CheckoutResponse{
		OrderID:     resp.OrderID,
		Status:      resp.Status,
		RedirectURL: resp.Redirect(),
	})
}

// handleCatalog handles GET /catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	resp := CatalogResponse{
		Addons:   s.catalog.Addons(),
		Gateways: s.catalog.Gateways(),
	}
	for _, ct := range []catalog.ChallengeType{catalog.OneStep, catalog.TwoStep} {
		for _, amt := range []catalog.ChallengeAmount{catalog.Amount10K, catalog.Amount25K, catalog.Amount50K, catalog.Amount100K} {
			if m, ok := s.catalog.Challenge(ct, amt); ok {
				resp.Challenges = append(resp.Challenges, CatalogChallenge{
					ChallengeType:   ct.String(),
					ChallengeAmount: amt.String(),
					ProductID:       m.ProductID,
					RulesKey:        m.RulesKey,
				})
			}
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// session resolves the {id} path value to a live session
func (s *Server) session(r *http.Request) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[r.PathValue("id")]
	return sess, ok
}

// state renders the current session state
func (s *Server) state(sess *session) SessionState {
	return SessionState{
		SessionID: sess.id,
		Selection: sess.reconciler.Selection(),
		Syncing:   sess.reconciler.Syncing(),
		Summary:   sess.reconciler.Summary(),
		Rules:     sess.reconciler.Rules(),
		Notices:   sess.drainNotices(),
	}
}

// toSelection validates the request and converts it to a Selection
func (r SelectionRequest) toSelection() (checkout.Selection, error) {
	sel := checkout.Selection{
		ChallengeType:   catalog.ChallengeType(r.ChallengeType),
		ChallengeAmount: catalog.ChallengeAmount(r.ChallengeAmount),
		Platform:        catalog.Platform(r.Platform),
		Addons:          r.Addons,
		PaymentMethod:   r.PaymentMethod,
		Billing:         r.Billing.toBilling(),
	}
	if !sel.ChallengeType.Valid() {
		return sel, errors.Newf(errors.TypeValidation, "unknown challenge type %q", r.ChallengeType)
	}
	if !sel.ChallengeAmount.Valid() {
		return sel, errors.Newf(errors.TypeValidation, "unknown challenge amount %q", r.ChallengeAmount)
	}
	if r.Platform != "" && !sel.Platform.Valid() {
		return sel, errors.Newf(errors.TypeValidation, "unknown platform %q", r.Platform)
	}
	return sel, nil
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response failed", zap.Error(err))
	}
}

// writeError maps a domain error to the HTTP error envelope
func (s *Server) writeError(w http.ResponseWriter, requestID string, err error) {
	status := http.StatusInternalServerError
	code := string(errors.TypeInternal)
	message := err.Error()

	if e, ok := err.(*errors.Error); ok {
		code = string(e.Type)
		message = e.Message
		switch e.Type {
		case errors.TypeValidation:
			status = http.StatusBadRequest
		case errors.TypeNotFound:
			status = http.StatusNotFound
		case errors.TypeBusiness:
			status = http.StatusUnprocessableEntity
		case errors.TypeTransport:
			status = http.StatusBadGateway
		case errors.TypeConfig:
			status = http.StatusInternalServerError
		}
	}

	s.log.Warn("request failed",
		zap.String("request_id", requestID),
		zap.String("code", code),
		zap.Int("status", status),
		zap.String("message", message))

	s.writeJSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: requestID,
	}})
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"magnate/internal/auth"
	"magnate/internal/config"
	"magnate/internal/corp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "user"

type UserContext struct {
	UserID string
	Email  string
	Token  string
}

type Server struct {
	cfg  config.APIConfig
	log  *slog.Logger
	auth *auth.Service
	corp *corp.Service
	mux  *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, authSvc *auth.Service, corpSvc *corp.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		auth: authSvc,
		corp: corpSvc,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/auth/logout", s.handleLogout)

			r.Get("/dashboard", s.handleDashboard)
			r.Get("/company", s.handleCompany)
			r.Get("/company/credit", s.handleCredit)
			r.Get("/company/shareholders", s.handleShareholders)
			r.Post("/company/dilute", s.handleDilute)
			r.Post("/company/buyback", s.handleBuyback)
			r.Post("/company/dividend", s.handleDividend)
			r.Post("/company/split", s.handleSplit)

			r.Post("/negotiations/buy", s.handleNegotiationBuy)
			r.Post("/negotiations/sell", s.handleNegotiationSell)
			r.Get("/negotiations/{id}", s.handleNegotiationGet)
			r.Post("/negotiations/{id}/accept", s.handleNegotiationAccept)
			r.Post("/negotiations/{id}/reject", s.handleNegotiationReject)
			r.Delete("/negotiations/{id}", s.handleNegotiationCancel)

			r.Get("/acquisitions/targets", s.handleTargets)
			r.Post("/acquisitions", s.handleAcquisitionStart)
			r.Get("/acquisitions/{id}", s.handleAcquisitionGet)
			r.Post("/acquisitions/{id}/retry", s.handleAcquisitionRetry)
			r.Delete("/acquisitions/{id}", s.handleAcquisitionCancel)

			r.Get("/subsidiaries", s.handleSubsidiaries)
			r.Post("/subsidiaries/{id}/invest", s.handleSubsidiaryInvest)
			r.Post("/subsidiaries/{id}/restructure", s.handleSubsidiaryRestructure)
			r.Post("/subsidiaries/{id}/sell", s.handleSubsidiarySell)
		})
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		user, err := s.auth.VerifyToken(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, UserContext{
			UserID: user.ID,
			Email:  user.Email,
			Token:  token,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) (UserContext, error) {
	v := ctx.Value(userContextKey)
	user, ok := v.(UserContext)
	if !ok || user.UserID == "" {
		return UserContext{}, errors.New("missing auth context")
	}
	return user, nil
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		CompanyName string `json:"company_name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.auth.SignUp(r.Context(), in.Email, in.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	if err := s.corp.EnsurePlayer(r.Context(), session.User.ID, in.CompanyName); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	if err := s.corp.EnsurePlayer(r.Context(), session.User.ID, ""); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err := s.auth.Logout(r.Context(), user.Token); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	out, err := s.corp.Dashboard(r.Context(), user.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	out, err := s.corp.CompanyState(r.Context(), user.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	out, err := s.corp.CompanyCredit(r.Context(), user.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleShareholders(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	out, err := s.corp.ListShareholders(r.Context(), user.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shareholders": out})
}

func (s *Server) capitalOp(w http.ResponseWriter, r *http.Request, needsPct bool,
	op func(context.Context, corp.CapitalOpInput) (corp.CapitalResult, error)) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	in := corp.CapitalOpInput{UserID: user.UserID, IdempotencyKey: idempotencyKey(r)}
	if needsPct {
		var body struct {
			Pct float64 `json:"pct"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Pct = body.Pct
	}
	out, err := op(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDilute(w http.ResponseWriter, r *http.Request) {
	s.capitalOp(w, r, true, s.corp.PerformDilution)
}

func (s *Server) handleBuyback(w http.ResponseWriter, r *http.Request) {
	s.capitalOp(w, r, true, s.corp.PerformBuyback)
}

func (s *Server) handleDividend(w http.ResponseWriter, r *http.Request) {
	s.capitalOp(w, r, true, s.corp.PayDividend)
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	s.capitalOp(w, r, false, s.corp.PerformStockSplit)
}

func (s *Server) handleNegotiationBuy(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in struct {
		ShareholderID string `json:"shareholder_id"`
		PriceMicros   int64  `json:"price_micros"`
		Lots          int    `json:"lots"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	shID, err := uuid.Parse(in.ShareholderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed shareholder_id")
		return
	}
	out, err := s.corp.ProposeShareBuy(r.Context(), corp.ShareBuyInput{
		UserID:         user.UserID,
		ShareholderID:  shID,
		PriceMicros:    in.PriceMicros,
		Lots:           in.Lots,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleNegotiationSell(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in struct {
		ShareholderID string `json:"shareholder_id"`
		Lots          int    `json:"lots"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	shID, err := uuid.Parse(in.ShareholderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed shareholder_id")
		return
	}
	out, err := s.corp.ProposeShareSell(r.Context(), corp.ShareSellInput{
		UserID:         user.UserID,
		ShareholderID:  shID,
		Lots:           in.Lots,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleNegotiationGet(w http.ResponseWriter, r *http.Request) {
	user, id, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}
	out, err := s.corp.GetNegotiation(r.Context(), user.UserID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNegotiationAccept(w http.ResponseWriter, r *http.Request) {
	user, id, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}
	out, err := s.corp.AcceptShareSell(r.Context(), user.UserID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNegotiationReject(w http.ResponseWriter, r *http.Request) {
	user, id, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}
	out, err := s.corp.RejectShareSell(r.Context(), user.UserID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNegotiationCancel(w http.ResponseWriter, r *http.Request) {
	user, id, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}
	if err := s.corp.CancelNegotiation(r.Context(), user.UserID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	out, err := s.corp.ListTargets(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"targets": out})
}

func (s *Server) handleAcquisitionStart(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in struct {
		TargetID    int64 `json:"target_id"`
		OfferMicros int64 `json:"offer_micros"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.corp.InitiateAcquisition(r.Context(), corp.AcquisitionInput{
		UserID:         user.UserID,
		TargetID:       in.TargetID,
		OfferMicros:    in.OfferMicros,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleAcquisitionGet(w http.ResponseWriter, r *http.Request) {
	user, id, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}
	out, err := s.corp.GetAcquisition(r.Context(), user.UserID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAcquisitionRetry(w http.ResponseWriter, r *http.Request) {
	user, id, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}
	var in struct {
		OfferMicros int64 `json:"offer_micros"`
	}
	// body is optional, an empty retry reuses the previous offer
	if err := decodeJSON(r, &in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.corp.RetryAcquisition(r.Context(), user.UserID, id, in.OfferMicros)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAcquisitionCancel(w http.ResponseWriter, r *http.Request) {
	user, id, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}
	if err := s.corp.CancelAcquisition(r.Context(), user.UserID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSubsidiaries(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	out, err := s.corp.ListSubsidiaries(r.Context(), user.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subsidiaries": out})
}

func (s *Server) subsidiaryOp(w http.ResponseWriter, r *http.Request, mode string,
	op func(context.Context, corp.SubsidiaryActionInput) (corp.SubsidiaryActionResult, error)) {
	user, id, ok := s.sessionRequest(w, r)
	if !ok {
		return
	}
	out, err := op(r.Context(), corp.SubsidiaryActionInput{
		UserID:         user.UserID,
		SubsidiaryID:   id,
		Mode:           mode,
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSubsidiaryInvest(w http.ResponseWriter, r *http.Request) {
	s.subsidiaryOp(w, r, "", s.corp.InvestInSubsidiary)
}

func (s *Server) handleSubsidiaryRestructure(w http.ResponseWriter, r *http.Request) {
	s.subsidiaryOp(w, r, "", s.corp.RestructureSubsidiary)
}

func (s *Server) handleSubsidiarySell(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Mode string `json:"mode"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.subsidiaryOp(w, r, in.Mode, s.corp.SellSubsidiary)
}

// sessionRequest pulls the auth context plus the {id} path parameter.
func (s *Server) sessionRequest(w http.ResponseWriter, r *http.Request) (UserContext, uuid.UUID, bool) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return UserContext{}, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed id")
		return UserContext{}, uuid.Nil, false
	}
	return user, id, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, corp.ErrInvalidParameter),
		errors.Is(err, corp.ErrInsufficientFunds),
		errors.Is(err, corp.ErrInsufficientStake):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, corp.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, corp.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, corp.ErrDuplicateIdempotency),
		errors.Is(err, corp.ErrInvalidState),
		errors.Is(err, corp.ErrSessionClosed),
		errors.Is(err, corp.ErrTxConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package httpapi exposes the authentication service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/lipodem/trackpanel/internal/auth"
	"github.com/lipodem/trackpanel/internal/credentials"
	"github.com/lipodem/trackpanel/internal/observability"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Service is the subset of auth.Service the API calls.
type Service interface {
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error
	RegisterPatient(ctx context.Context, token string, req auth.RegisterPatientRequest) (credentials.AccountView, error)
	Logout(ctx context.Context, token string) error
	RefreshSession(ctx context.Context, token string) (*auth.Session, error)
	CurrentAccount(ctx context.Context, token string) (credentials.AccountView, error)
	ListAccounts(ctx context.Context, token string) ([]credentials.AccountView, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithAllowedOrigins sets the CORS origins. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server routes API requests to the service.
type Server struct {
	svc     Service
	logger  *slog.Logger
	origins []string
	metrics *observability.Metrics
}

// NewServer creates a Server.
func NewServer(svc Service, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("auth service is required")
	}
	s := &Server{svc: svc, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("logger is required")
	}
	return s, nil
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.cors)
	if s.metrics != nil {
		r.Use(s.instrument)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusNotFound, "not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/change-password", s.handleChangePassword)
		r.Post("/register-patient", s.handleRegisterPatient)
		r.Post("/logout", s.handleLogout)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/me", s.handleMe)
		r.Get("/accounts", s.handleAccounts)
	})

	return r
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type registerPatientRequest struct {
	PatientID string `json:"patientId"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body := map[string]any{
		"user":             result.Account,
		"sessionToken":     result.SessionToken,
		"sessionExpiresAt": result.Session.ExpiresAt,
		"token":            result.SessionToken,
	}
	if result.BearerToken != "" {
		body["token"] = result.BearerToken
		body["tokenExpiresAt"] = result.BearerExpiresAt
	}
	writeSuccess(w, http.StatusOK, "login successful", body)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.svc.ChangePassword(r.Context(), bearerToken(r), req.CurrentPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "password changed", nil)
}

func (s *Server) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req registerPatientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := s.svc.RegisterPatient(r.Context(), bearerToken(r), auth.RegisterPatientRequest{
		PatientID: req.PatientID,
		Username:  req.Username,
		Password:  req.Password,
		FullName:  req.FullName,
		Email:     req.Email,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "patient registered", map[string]any{"patient": view})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Logout(r.Context(), bearerToken(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "logged out", nil)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	session, err := s.svc.RefreshSession(r.Context(), bearerToken(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "session refreshed", map[string]any{"sessionExpiresAt": session.ExpiresAt})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.CurrentAccount(r.Context(), bearerToken(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"user": view})
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.ListAccounts(r.Context(), bearerToken(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if views == nil {
		views = []credentials.AccountView{}
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"accounts": views})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			h := w.Header()
			switch {
			case slices.Contains(s.origins, "*"):
				h.Set("Access-Control-Allow-Origin", "*")
			case slices.Contains(s.origins, origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.Observe(route, r.Method, status, time.Since(start))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, fields map[string]any) {
	body := map[string]any{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeFailure(w http.ResponseWriter, status int, message string, fields map[string]any) {
	body := map[string]any{"success": false, "message": message}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// isClientGone reports errors caused by the caller hanging up.
func isClientGone(err error) bool {
	return errors.Is(err, context.Canceled)
}

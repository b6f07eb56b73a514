// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lipodem/trackpanel/internal/credentials"
	"github.com/lipodem/trackpanel/pkg/errutil"
)

var tracer = otel.Tracer("trackpanel/auth")

// Service defaults.
const (
	DefaultMinPasswordLength = 6
	DefaultConflictAttempts  = 3
	DefaultConflictBackoff   = 50 * time.Millisecond
)

// Operation names used in change descriptions, spans and metrics.
const (
	opLogin           = "login"
	opChangePassword  = "change_password"
	opRegisterPatient = "register_patient"
	opBootstrapAdmin  = "bootstrap_admin"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Account      credentials.AccountView
	Session      *Session
	SessionToken string

	// BearerToken is empty when bearer tokens are not configured.
	BearerToken     string
	BearerExpiresAt time.Time
}

// RegisterPatientRequest carries the fields of a new patient account.
type RegisterPatientRequest struct {
	PatientID string
	Username  string
	Password  string
	FullName  string
	Email     string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithLockoutPolicy overrides the default lockout policy.
func WithLockoutPolicy(p LockoutPolicy) ServiceOption {
	return func(s *Service) {
		s.lockout = p
	}
}

// WithConflictRetries sets the total number of read-modify-write attempts
// and the base of the exponential backoff between them.
func WithConflictRetries(attempts int, base time.Duration) ServiceOption {
	return func(s *Service) {
		s.attempts = attempts
		s.backoff = base
	}
}

// WithMinPasswordLength sets the minimum password length in characters.
func WithMinPasswordLength(n int) ServiceOption {
	return func(s *Service) {
		s.minPassword = n
	}
}

// WithBearerTokens enables bearer tokens issued at login and accepted
// wherever a session token is.
func WithBearerTokens(issuer *JWTIssuer) ServiceOption {
	return func(s *Service) {
		s.tokens = issuer
	}
}

// Service authenticates accounts and applies credential changes to the
// shared record. It holds no locks; concurrent writers are reconciled by
// the store's version check.
type Service struct {
	store       credentials.Store
	hasher      PasswordHasher
	sessions    *SessionManager
	tokens      *JWTIssuer
	logger      *slog.Logger
	now         func() time.Time
	lockout     LockoutPolicy
	attempts    int
	backoff     time.Duration
	minPassword int

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a Service.
func NewService(store credentials.Store, hasher PasswordHasher, sessions *SessionManager, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, oops.Errorf("credential store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session manager is required")
	}
	s := &Service{
		store:       store,
		hasher:      hasher,
		sessions:    sessions,
		logger:      slog.Default(),
		now:         time.Now,
		lockout:     DefaultLockoutPolicy(),
		attempts:    DefaultConflictAttempts,
		backoff:     DefaultConflictBackoff,
		minPassword: DefaultMinPasswordLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if s.attempts < 1 {
		return nil, oops.Errorf("conflict attempts must be at least 1")
	}
	if s.lockout.MaxAttempts < 1 || s.lockout.Duration <= 0 {
		return nil, oops.Errorf("lockout policy requires positive attempts and duration")
	}
	return s, nil
}

// Login verifies username and password against the current credential
// record and, on success, opens a session.
//
// Unknown usernames and wrong passwords fail identically. Every attempt
// on an existing active unlocked account is written back so that
// concurrent failures are all counted.
func (s *Service) Login(ctx context.Context, username, password string) (result *LoginResult, err error) {
	ctx, span := tracer.Start(ctx, "auth.login",
		trace.WithAttributes(attribute.String("auth.username", username)))
	defer func() { endSpan(span, err) }()

	if username == "" || password == "" {
		LoginAttempts.WithLabelValues(OutcomeInvalid).Inc()
		return nil, invalidInput("username and password are required")
	}

	verified := make(map[string]bool)
	var upgraded string

	var (
		account *credentials.Account
		failure error
		locked  bool
	)
	err = s.mutate(ctx, opLogin, func(rec *credentials.Record) (string, error) {
		account, failure, locked = nil, nil, false
		now := s.now()

		acct := rec.FindByUsername(username)
		if acct == nil {
			s.dummyVerify(password)
			return "", invalidCredentials()
		}
		if !acct.Active {
			return "", accountDisabled()
		}
		if st := s.lockout.Check(acct, now); st.Locked {
			return "", accountLocked(st.LockedUntil, st.Remaining)
		}

		ok, cached := verified[acct.PasswordHash]
		if !cached {
			var verr error
			ok, verr = s.hasher.Verify(password, acct.PasswordHash)
			if verr != nil {
				return "", s.internal(ctx, "verify password", verr)
			}
			verified[acct.PasswordHash] = ok
		}

		if !ok {
			st := s.lockout.RecordFailure(acct, now)
			e := oops.Code(CodeInvalidCredentials).With("remaining_attempts", st.RemainingAttempts)
			if st.Locked {
				e = e.With("locked_until", st.LockedUntil)
			}
			failure = e.Errorf(msgInvalidCredentials)
			locked = st.Locked
			return "login failure: " + username, nil
		}

		s.lockout.RecordSuccess(acct, now)
		if s.hasher.NeedsUpgrade(acct.PasswordHash) {
			if upgraded == "" {
				h, herr := s.hasher.Hash(password)
				if herr != nil {
					errutil.LogError(ctx, s.logger, "password hash upgrade failed", herr)
				}
				upgraded = h
			}
			if upgraded != "" {
				acct.PasswordHash = upgraded
			}
		}
		account = acct
		return "login success: " + username, nil
	})
	if err != nil {
		LoginAttempts.WithLabelValues(loginOutcome(err)).Inc()
		return nil, err
	}
	if failure != nil {
		LoginAttempts.WithLabelValues(OutcomeInvalid).Inc()
		if locked {
			Lockouts.Inc()
			s.logger.WarnContext(ctx, "account locked after repeated failures", "username", username)
		}
		return nil, failure
	}

	session, token, err := s.sessions.Create(ctx, account)
	if err != nil {
		LoginAttempts.WithLabelValues(OutcomeError).Inc()
		return nil, s.internal(ctx, "create session", err)
	}
	result = &LoginResult{
		Account:      account.View(),
		Session:      session,
		SessionToken: token,
	}
	if s.tokens != nil {
		result.BearerToken, result.BearerExpiresAt, err = s.tokens.Issue(account)
		if err != nil {
			LoginAttempts.WithLabelValues(OutcomeError).Inc()
			return nil, s.internal(ctx, "issue bearer token", err)
		}
	}
	LoginAttempts.WithLabelValues(OutcomeSuccess).Inc()
	span.SetAttributes(attribute.String("auth.account_id", account.ID))
	return result, nil
}

// ChangePassword replaces the caller's password after verifying the
// current one. The account is located by the identity in the token, never
// by client input. Other sessions of the account are revoked afterwards.
func (s *Service) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (err error) {
	ctx, span := tracer.Start(ctx, "auth.change_password")
	defer func() { endSpan(span, err) }()

	principal, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if currentPassword == "" {
		return invalidInput("current password is required")
	}
	if err := s.checkPasswordLength(newPassword); err != nil {
		return err
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.internal(ctx, "hash new password", err)
	}

	verified := make(map[string]bool)
	err = s.mutate(ctx, opChangePassword, func(rec *credentials.Record) (string, error) {
		acct := rec.FindByID(principal.AccountID)
		if acct == nil {
			return "", unauthorized()
		}
		if !acct.Active {
			return "", accountDisabled()
		}
		ok, cached := verified[acct.PasswordHash]
		if !cached {
			var verr error
			ok, verr = s.hasher.Verify(currentPassword, acct.PasswordHash)
			if verr != nil {
				return "", s.internal(ctx, "verify password", verr)
			}
			verified[acct.PasswordHash] = ok
		}
		if !ok {
			return "", invalidCredentials()
		}
		now := s.now()
		acct.PasswordHash = newHash
		acct.PasswordChangedAt = &now
		return "change password: " + acct.Username, nil
	})
	if err != nil {
		return err
	}

	if _, rerr := s.sessions.RevokeAccount(ctx, principal.AccountID, principal.SessionID); rerr != nil {
		errutil.LogError(ctx, s.logger, "failed to revoke sessions after password change", rerr)
	}
	s.logger.InfoContext(ctx, "password changed", "account_id", principal.AccountID)
	return nil
}

// RegisterPatient creates a patient account. Only admins and dietitians
// may register patients. Username uniqueness is re-checked against the
// fresh record on every attempt.
func (s *Service) RegisterPatient(ctx context.Context, token string, req RegisterPatientRequest) (view credentials.AccountView, err error) {
	ctx, span := tracer.Start(ctx, "auth.register_patient",
		trace.WithAttributes(attribute.String("auth.new_username", req.Username)))
	defer func() { endSpan(span, err) }()

	principal, err := s.Authenticate(ctx, token)
	if err != nil {
		return credentials.AccountView{}, err
	}
	if !principal.CanRegisterPatients() {
		return credentials.AccountView{}, forbidden("patients.register")
	}

	req.PatientID = strings.TrimSpace(req.PatientID)
	req.Username = strings.TrimSpace(req.Username)
	if req.PatientID == "" || req.Username == "" || req.Password == "" {
		return credentials.AccountView{}, invalidInput("patientId, username and password are required")
	}
	if err := s.checkPasswordLength(req.Password); err != nil {
		return credentials.AccountView{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return credentials.AccountView{}, s.internal(ctx, "hash password", err)
	}
	id := "patient_" + ulid.Make().String()
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName = req.Username
	}

	var created *credentials.Account
	err = s.mutate(ctx, opRegisterPatient, func(rec *credentials.Record) (string, error) {
		created = nil
		if rec.UsernameTaken(req.Username) {
			return "", usernameTaken(req.Username)
		}
		acct := &credentials.Account{
			ID:           id,
			Username:     req.Username,
			PasswordHash: hash,
			Role:         credentials.RolePatient,
			Active:       true,
			FullName:     fullName,
			Email:        strings.TrimSpace(req.Email),
			PatientID:    req.PatientID,
			CreatedAt:    s.now().UTC(),
			CreatedBy:    principal.Username,
		}
		rec.AddPatient(acct)
		created = acct
		return "register patient: " + req.Username, nil
	})
	if err != nil {
		return credentials.AccountView{}, err
	}
	s.logger.InfoContext(ctx, "patient registered",
		"account_id", created.ID, "username", created.Username, "created_by", principal.Username)
	return created.View(), nil
}

// Logout revokes the server session behind token. Bearer tokens have no
// server-side state and stay valid until they expire.
func (s *Service) Logout(ctx context.Context, token string) (err error) {
	ctx, span := tracer.Start(ctx, "auth.logout")
	defer func() { endSpan(span, err) }()

	if token == "" {
		return unauthorized()
	}
	if IsBearerToken(token) {
		return nil
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return s.internal(ctx, "revoke session", err)
	}
	return nil
}

// RefreshSession extends a valid server session by the full timeout.
func (s *Service) RefreshSession(ctx context.Context, token string) (session *Session, err error) {
	ctx, span := tracer.Start(ctx, "auth.refresh_session")
	defer func() { endSpan(span, err) }()

	if IsBearerToken(token) {
		return nil, invalidInput("bearer tokens cannot be refreshed")
	}
	return s.sessions.Refresh(ctx, token)
}

// CurrentAccount returns the public view of the caller, read from the
// current record.
func (s *Service) CurrentAccount(ctx context.Context, token string) (view credentials.AccountView, err error) {
	ctx, span := tracer.Start(ctx, "auth.current_account")
	defer func() { endSpan(span, err) }()

	principal, err := s.Authenticate(ctx, token)
	if err != nil {
		return credentials.AccountView{}, err
	}
	rec, _, err := s.store.Read(ctx)
	if err != nil {
		return credentials.AccountView{}, err
	}
	acct := rec.FindByID(principal.AccountID)
	if acct == nil {
		return credentials.AccountView{}, unauthorized()
	}
	if !acct.Active {
		return credentials.AccountView{}, accountDisabled()
	}
	return acct.View(), nil
}

// ListAccounts returns the public views of every account. Requires the
// accounts.read permission.
func (s *Service) ListAccounts(ctx context.Context, token string) (views []credentials.AccountView, err error) {
	ctx, span := tracer.Start(ctx, "auth.list_accounts")
	defer func() { endSpan(span, err) }()

	principal, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !principal.HasPermission(PermissionAccountsRead) {
		return nil, forbidden(PermissionAccountsRead)
	}
	rec, _, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	accounts := rec.Accounts()
	views = make([]credentials.AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, a.View())
	}
	return views, nil
}

// BootstrapAdmin creates the first admin account. It fails with
// AUTH_CONFLICT once any admin exists.
func (s *Service) BootstrapAdmin(ctx context.Context, username, password, fullName string) (view credentials.AccountView, err error) {
	ctx, span := tracer.Start(ctx, "auth.bootstrap_admin",
		trace.WithAttributes(attribute.String("auth.username", username)))
	defer func() { endSpan(span, err) }()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return credentials.AccountView{}, invalidInput("username and password are required")
	}
	if err := s.checkPasswordLength(password); err != nil {
		return credentials.AccountView{}, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return credentials.AccountView{}, s.internal(ctx, "hash password", err)
	}
	if fullName == "" {
		fullName = username
	}
	id := "user_" + ulid.Make().String()

	var created *credentials.Account
	err = s.mutate(ctx, opBootstrapAdmin, func(rec *credentials.Record) (string, error) {
		created = nil
		if rec.HasRole(credentials.RoleAdmin) {
			return "", oops.Code(CodeConflict).Errorf("an admin account already exists")
		}
		if rec.UsernameTaken(username) {
			return "", usernameTaken(username)
		}
		acct := &credentials.Account{
			ID:           id,
			Username:     username,
			PasswordHash: hash,
			Role:         credentials.RoleAdmin,
			Active:       true,
			FullName:     fullName,
			CreatedAt:    s.now().UTC(),
			CreatedBy:    "bootstrap",
		}
		rec.AddUser(acct)
		created = acct
		return "bootstrap admin: " + username, nil
	})
	if err != nil {
		return credentials.AccountView{}, err
	}
	return created.View(), nil
}

// Authenticate resolves token to a principal. Bearer tokens are verified
// by signature alone; anything else is a server session token, which is
// validated and touched.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, unauthorized()
	}
	if IsBearerToken(token) {
		if s.tokens == nil {
			return nil, unauthorized()
		}
		claims, err := s.tokens.Parse(token)
		if err != nil {
			return nil, err
		}
		return principalFromClaims(claims), nil
	}
	session, err := s.sessions.Touch(ctx, token)
	if err != nil {
		if errutil.HasCode(err, CodeUnauthorized) {
			return nil, err
		}
		return nil, s.internal(ctx, "validate session", err)
	}
	return principalFromSession(session), nil
}

// mutate runs the read, modify, write cycle against the credential store.
// fn edits the fresh record and returns the change description; an empty
// description skips the write. Version conflicts restart the cycle up to
// the configured attempt count.
func (s *Service) mutate(ctx context.Context, op string, fn func(*credentials.Record) (string, error)) error {
	attempts := 0
	backoff := retry.WithMaxRetries(uint64(s.attempts-1), retry.NewExponential(s.backoff)) //nolint:gosec // attempts >= 1
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		rec, version, err := s.store.Read(ctx)
		if err != nil {
			return err
		}
		change, err := fn(rec)
		if err != nil || change == "" {
			return err
		}
		rec.LastUpdated = s.now().UTC()
		if _, err := s.store.Write(ctx, rec, version, change); err != nil {
			if errors.Is(err, credentials.ErrVersionConflict) {
				ConflictRetries.WithLabelValues(op).Inc()
				s.logger.DebugContext(ctx, "credential record changed, retrying",
					"operation", op, "attempt", attempts)
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if errors.Is(err, credentials.ErrVersionConflict) {
		s.logger.WarnContext(ctx, "giving up after repeated version conflicts",
			"operation", op, "attempts", attempts)
		return oops.Code(CodeConflict).
			With("operation", op).
			With("attempts", attempts).
			Errorf(msgConflict)
	}
	return err
}

func (s *Service) checkPasswordLength(password string) error {
	if utf8.RuneCountInString(password) < s.minPassword {
		return oops.Code(CodeInvalidInput).
			With("min_length", s.minPassword).
			Errorf("password must be at least %d characters", s.minPassword)
	}
	return nil
}

// dummyVerify spends the same verification work on unknown usernames as
// on real ones.
func (s *Service) dummyVerify(password string) {
	s.dummyOnce.Do(func() {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return
		}
		h, err := s.hasher.Hash(hex.EncodeToString(buf))
		if err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash) //nolint:errcheck // timing only
	}
}

// internal logs err with detail and returns a generic error.
func (s *Service) internal(ctx context.Context, operation string, err error) error {
	errutil.LogError(ctx, s.logger, "auth operation failed", oops.With("operation", operation).Wrap(err))
	return oops.Code(CodeInternal).With("operation", operation).Errorf(msgInternal)
}

func loginOutcome(err error) string {
	switch errutil.Code(err) {
	case CodeInvalidCredentials, CodeInvalidInput:
		return OutcomeInvalid
	case CodeAccountDisabled:
		return OutcomeDisabled
	case CodeAccountLocked:
		return OutcomeLocked
	default:
		return OutcomeError
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

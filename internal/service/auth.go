// Package service contains the business logic for the JetJot API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/ratelimit"
	"github.com/pkordes/jetjot/internal/repo"
)

// AuthService is the login gate: rate limiting, credential lookup and
// first-use provisioning.
type AuthService struct {
	repo          repo.CredentialRepo
	guard         *ratelimit.Guard
	cost          int
	lookupTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// NewAuthService constructs an AuthService. cost is the bcrypt work factor for
// new accounts; lookupTimeout bounds each credential store call.
func NewAuthService(r repo.CredentialRepo, guard *ratelimit.Guard, cost int, lookupTimeout time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		repo:          r,
		guard:         guard,
		cost:          cost,
		lookupTimeout: lookupTimeout,
		logger:        logger,
		now:           time.Now,
	}
}

// LoginOrCreate authenticates username, provisioning the account on first use.
func (s *AuthService) LoginOrCreate(ctx context.Context, username, password string) (domain.Session, error) {
	username = domain.NormalizeUsername(username)
	if username == "" || password == "" {
		return domain.Session{}, fmt.Errorf("service.AuthService.LoginOrCreate: %w: username and password are required", domain.ErrValidation)
	}

	if err := s.guard.Check(username); err != nil {
		s.logger.WarnContext(ctx, "login rate limited", "username", username, "error", err)
		return domain.Session{}, fmt.Errorf("service.AuthService.LoginOrCreate: %w", err)
	}

	cred, err := s.lookup(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return s.provision(ctx, username, password)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("service.AuthService.LoginOrCreate: %w", err)
	}
	return s.verify(ctx, cred, password)
}

// RateLimitStatus reports the per-username window for display.
func (s *AuthService) RateLimitStatus(username string) ratelimit.Status {
	return s.guard.Status(domain.NormalizeUsername(username))
}

// lookup reads the credential within the lookup timeout. Any failure other
// than a missing record means the store is unavailable.
func (s *AuthService) lookup(ctx context.Context, username string) (domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	cred, err := s.repo.Get(ctx, username)
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return cred, err
	}
	s.logger.ErrorContext(ctx, "credential lookup failed", "username", username, "error", err)
	return domain.Credential{}, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
}

func (s *AuthService) verify(ctx context.Context, cred domain.Credential, password string) (domain.Session, error) {
	if cred.Disabled {
		s.logger.WarnContext(ctx, "login to disabled account", "username", cred.Username)
		return domain.Session{}, fmt.Errorf("service.AuthService.LoginOrCreate: %w", domain.ErrAccountDisabled)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "login rejected", "username", cred.Username)
		return domain.Session{}, fmt.Errorf("service.AuthService.LoginOrCreate: %w", domain.ErrInvalidCredentials)
	}
	s.guard.Reset(cred.Username)
	return domain.Session{Username: cred.Username, IsNew: false, IsAdmin: cred.IsAdmin}, nil
}

// provision creates the account. When a concurrent first login of the same
// username wins the insert, the password is verified against the winner.
func (s *AuthService) provision(ctx context.Context, username, password string) (domain.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return domain.Session{}, fmt.Errorf("service.AuthService.LoginOrCreate: %w: password is too long", domain.ErrValidation)
		}
		return domain.Session{}, fmt.Errorf("service.AuthService.LoginOrCreate: hash: %w", err)
	}

	cred := domain.Credential{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}

	createCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	created, err := s.repo.Create(createCtx, cred)
	cancel()
	if err != nil {
		s.logger.ErrorContext(ctx, "credential create failed", "username", username, "error", err)
		return domain.Session{}, fmt.Errorf("service.AuthService.LoginOrCreate: %w: %v", domain.ErrBackendUnavailable, err)
	}
	if !created {
		winner, err := s.lookup(ctx, username)
		if err != nil {
			return domain.Session{}, fmt.Errorf("service.AuthService.LoginOrCreate: %w", err)
		}
		return s.verify(ctx, winner, password)
	}

	s.logger.InfoContext(ctx, "account provisioned", "username", username)
	s.guard.Reset(username)
	return domain.Session{Username: username, IsNew: true, IsAdmin: false}, nil
}

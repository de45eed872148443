package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/repo"
)

// AdminService implements the account administration actions.
// actor is the username performing the action; an empty actor (the command
// line) may act on any account, including its own.
type AdminService struct {
	creds   repo.CredentialRepo
	sprints repo.SprintRepo
	logger  *slog.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(creds repo.CredentialRepo, sprints repo.SprintRepo, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{creds: creds, sprints: sprints, logger: logger}
}

// ListUsers returns one page of accounts with their sprint counts.
func (s *AdminService) ListUsers(ctx context.Context, p domain.PaginationParams) ([]domain.UserSummary, int64, error) {
	users, total, err := s.creds.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.AdminService.ListUsers: %w", err)
	}
	return users, total, nil
}

// SetDisabled blocks or unblocks logins for username.
func (s *AdminService) SetDisabled(ctx context.Context, actor, username string, disabled bool) error {
	username = domain.NormalizeUsername(username)
	if err := notSelf(actor, username, "disable"); disabled && err != nil {
		return fmt.Errorf("service.AdminService.SetDisabled: %w", err)
	}
	if err := s.creds.SetDisabled(ctx, username, disabled); err != nil {
		return fmt.Errorf("service.AdminService.SetDisabled: %w", err)
	}
	s.logger.InfoContext(ctx, "account disabled flag changed", "actor", actor, "username", username, "disabled", disabled)
	return nil
}

// SetAdmin grants or revokes the admin flag.
func (s *AdminService) SetAdmin(ctx context.Context, actor, username string, admin bool) error {
	username = domain.NormalizeUsername(username)
	if err := notSelf(actor, username, "revoke admin from"); !admin && err != nil {
		return fmt.Errorf("service.AdminService.SetAdmin: %w", err)
	}
	if err := s.creds.SetAdmin(ctx, username, admin); err != nil {
		return fmt.Errorf("service.AdminService.SetAdmin: %w", err)
	}
	s.logger.InfoContext(ctx, "account admin flag changed", "actor", actor, "username", username, "admin", admin)
	return nil
}

// DeleteUser removes every sprint of username and then the credential.
// The two deletes are separate writes; a failure in between leaves an
// account without sprints, which a retry completes.
func (s *AdminService) DeleteUser(ctx context.Context, actor, username string) (int64, error) {
	username = domain.NormalizeUsername(username)
	if err := notSelf(actor, username, "delete"); err != nil {
		return 0, fmt.Errorf("service.AdminService.DeleteUser: %w", err)
	}
	if _, err := s.creds.Get(ctx, username); err != nil {
		return 0, fmt.Errorf("service.AdminService.DeleteUser: %w", err)
	}
	n, err := s.sprints.DeleteByOwner(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("service.AdminService.DeleteUser: %w", err)
	}
	if err := s.creds.Delete(ctx, username); err != nil {
		return n, fmt.Errorf("service.AdminService.DeleteUser: %w", err)
	}
	s.logger.InfoContext(ctx, "account deleted", "actor", actor, "username", username, "sprints", n)
	return n, nil
}

func notSelf(actor, username, verb string) error {
	if actor != "" && domain.NormalizeUsername(actor) == username {
		return fmt.Errorf("%w: you cannot %s your own account", domain.ErrValidation, verb)
	}
	return nil
}

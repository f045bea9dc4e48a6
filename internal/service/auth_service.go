package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"osld-portal/internal/auth"
	"osld-portal/internal/models"
	"osld-portal/internal/repository"
)

// AuthService handles authentication business logic
type AuthService struct {
	accountRepo AccountStore
	orgRepo     OrganizationStore
	authSvc     *auth.Service
}

// NewAuthService creates a new authentication service
func NewAuthService(accountRepo AccountStore, orgRepo OrganizationStore, authSvc *auth.Service) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		orgRepo:     orgRepo,
		authSvc:     authSvc,
	}
}

// LoginResult is returned on successful login
type LoginResult struct {
	Token        string               `json:"token"`
	Account      *models.Account      `json:"account"`
	Organization *models.Organization `json:"organization"`
}

// Login authenticates an organization account
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	// Get account by email
	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	// Verify password
	if err := s.authSvc.VerifyPassword(account.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Check if account is active
	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	org, err := s.orgRepo.GetByCode(ctx, account.OrganizationCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.authSvc.GenerateToken(account.ID, org.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	// Update last login
	if err := s.accountRepo.UpdateLastLogin(ctx, account.ID); err != nil {
		slog.Warn("Failed to update last login", "account_id", account.ID, "error", err)
	}

	return &LoginResult{Token: token, Account: account, Organization: org}, nil
}

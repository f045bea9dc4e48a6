package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"osld-portal/internal/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

// AccountRepository handles organization account database operations
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (organization_code, email, password_hash, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		account.OrganizationCode,
		account.Email,
		account.PasswordHash,
		account.IsActive,
	).Scan(&account.ID, &account.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrAccountExists
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	query := `
		SELECT id, organization_code, email, password_hash, is_active, last_login_at, created_at
		FROM accounts
		WHERE id = $1
	`
	return r.get(ctx, query, id)
}

// GetByEmail retrieves an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, organization_code, email, password_hash, is_active, last_login_at, created_at
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`
	return r.get(ctx, query, email)
}

// UpdateLastLogin records a successful login
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id uint) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET last_login_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (r *AccountRepository) get(ctx context.Context, query string, arg any) (*models.Account, error) {
	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID,
		&account.OrganizationCode,
		&account.Email,
		&account.PasswordHash,
		&account.IsActive,
		&account.LastLoginAt,
		&account.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

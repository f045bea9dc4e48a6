package testutil

import (
	"database/sql"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"osld-portal/internal/models"
)

// TestPassword is the password of every fixture account
const TestPassword = "correct horse battery staple"

// Fixtures holds test data. Organizations come from the seed migration.
type Fixtures struct {
	DB              *sql.DB
	OfficeAccount   *models.Account // OSLD
	USGAccount      *models.Account
	LSGAccount      *models.Account
	OrgAccount      *models.Account // CSC, accredited
	InactiveAccount *models.Account
}

// SetupFixtures creates one account per seeded organization kind
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	return &Fixtures{
		DB:              db,
		OfficeAccount:   createAccount(t, db, "OSLD", "osld@test.com", true),
		USGAccount:      createAccount(t, db, "USG", "usg@test.com", true),
		LSGAccount:      createAccount(t, db, "LSG", "lsg@test.com", true),
		OrgAccount:      createAccount(t, db, "CSC", "csc@test.com", true),
		InactiveAccount: createAccount(t, db, "JPIA", "jpia@test.com", false),
	}
}

func createAccount(t *testing.T, db *sql.DB, org, email string, active bool) *models.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	account := &models.Account{
		OrganizationCode: org,
		Email:            email,
		PasswordHash:     string(hash),
		IsActive:         active,
	}

	err = db.QueryRow(`
		INSERT INTO accounts (organization_code, email, password_hash, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, org, email, account.PasswordHash, active).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create account %s: %v", email, err)
	}

	return account
}

// CreateEvent inserts an event ending on end for target
func CreateEvent(t *testing.T, db *sql.DB, title, target string, end time.Time, accomplishment, liquidation bool) *models.Event {
	t.Helper()

	event := &models.Event{
		Title:                  title,
		StartDate:              end,
		EndDate:                &end,
		AllDay:                 true,
		TargetOrganization:     target,
		RequiresAccomplishment: accomplishment,
		RequiresLiquidation:    liquidation,
		CreatedBy:              "OSLD",
	}

	err := db.QueryRow(`
		INSERT INTO events (title, start_date, end_date, all_day, target_organization,
		                    requires_accomplishment, requires_liquidation, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, title, end, end, true, target, accomplishment, liquidation, "OSLD").
		Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create event %s: %v", title, err)
	}

	return event
}

package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
)

// CredentialRepository persists at most one bearer credential and its cached
// profile. The slot column is fixed at 1 so writes are always an upsert of the
// same row.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Save stores the token and profile, replacing any previous credential.
func (r *CredentialRepository) Save(token string, profile *models.Profile) error {
	if token == "" {
		return fmt.Errorf("refusing to store empty token")
	}

	var userID, userEmail string
	if profile != nil {
		userID = profile.ID
		userEmail = profile.Email
	}

	query := `
		INSERT INTO credentials (slot, token, user_id, user_email, saved_at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET token = excluded.token, user_id = excluded.user_id,
			user_email = excluded.user_email, saved_at = excluded.saved_at
	`

	if _, err := r.db.Exec(query, token, userID, userEmail, time.Now()); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	return nil
}

// Load returns the stored token and profile. A missing credential is not an
// error; it returns an empty token and a nil profile.
func (r *CredentialRepository) Load() (string, *models.Profile, error) {
	query := `SELECT token, user_id, user_email FROM credentials WHERE slot = 1`

	var token, userID, userEmail string
	err := r.db.QueryRow(query).Scan(&token, &userID, &userEmail)
	if err == sql.ErrNoRows {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load credential: %w", err)
	}

	var profile *models.Profile
	if userID != "" || userEmail != "" {
		profile = &models.Profile{ID: userID, Email: userEmail}
	}

	return token, profile, nil
}

// Clear removes the stored credential. Clearing an empty store is a no-op.
func (r *CredentialRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM credentials WHERE slot = 1`); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

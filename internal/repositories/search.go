package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
)

const (
	// MaxSearchHistory caps the number of retained history entries.
	MaxSearchHistory = 10

	// LastSearchMaxAge is how long the most recent search stays recallable.
	LastSearchMaxAge = 7 * 24 * time.Hour
)

// SearchRepository keeps a bounded, de-duplicated history of searches so the
// CLI can recall the previous query on startup.
type SearchRepository struct {
	db *sql.DB
}

// NewSearchRepository creates a new [SearchRepository] with the given database connection
func NewSearchRepository(db *sql.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// SaveSearch records a search, replacing any earlier entry with the same term
// (case-insensitive) and trimming the history to [MaxSearchHistory] entries.
func (r *SearchRepository) SaveSearch(params models.SearchParams) error {
	term := strings.TrimSpace(params.Term)
	if term == "" && params.ChannelID == "" {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM searches WHERE LOWER(term) = LOWER(?) AND kind = ?`, term, string(params.Kind)); err != nil {
		return fmt.Errorf("failed to de-duplicate search: %w", err)
	}

	query := `INSERT INTO searches (term, channel_id, order_by, kind, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.Exec(query, term, params.ChannelID, params.Order, string(params.Kind), time.Now()); err != nil {
		return fmt.Errorf("failed to insert search: %w", err)
	}

	trim := `
		DELETE FROM searches WHERE id NOT IN (
			SELECT id FROM searches ORDER BY created_at DESC LIMIT ?
		)
	`
	if _, err := tx.Exec(trim, MaxSearchHistory); err != nil {
		return fmt.Errorf("failed to trim search history: %w", err)
	}

	return tx.Commit()
}

// LastSearch returns the most recent search, or nil when none exists or the
// latest entry is older than [LastSearchMaxAge].
func (r *SearchRepository) LastSearch() (*models.SearchRecord, error) {
	query := `
		SELECT term, channel_id, order_by, kind, created_at
		FROM searches
		ORDER BY created_at DESC
		LIMIT 1
	`

	var rec models.SearchRecord
	var kind string
	err := r.db.QueryRow(query).Scan(&rec.Term, &rec.ChannelID, &rec.Order, &kind, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last search: %w", err)
	}

	if time.Since(rec.CreatedAt) > LastSearchMaxAge {
		return nil, nil
	}

	rec.Kind = models.SearchKind(kind)
	return &rec, nil
}

// History returns retained searches, most recent first.
func (r *SearchRepository) History() ([]models.SearchRecord, error) {
	query := `
		SELECT term, channel_id, order_by, kind, created_at
		FROM searches
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	var records []models.SearchRecord
	for rows.Next() {
		var rec models.SearchRecord
		var kind string
		if err := rows.Scan(&rec.Term, &rec.ChannelID, &rec.Order, &kind, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search record: %w", err)
		}
		rec.Kind = models.SearchKind(kind)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Clear removes all retained searches.
func (r *SearchRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM searches`); err != nil {
		return fmt.Errorf("failed to clear search history: %w", err)
	}
	return nil
}

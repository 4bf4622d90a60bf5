package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
)

// DefaultHistoryMaxAge bounds how long a downloaded marker is kept before
// Prune discards it.
const DefaultHistoryMaxAge = 90 * 24 * time.Hour

// HistoryRepository records which items have already been downloaded so
// repeat downloads can be surfaced before another transfer is started.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new [HistoryRepository] with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Mark stores (or refreshes) the downloaded marker for an item.
func (r *HistoryRepository) Mark(record models.DownloadRecord) error {
	if record.ItemID == "" {
		return fmt.Errorf("item ID is required")
	}

	if record.Quality == "" {
		record.Quality = "best"
	}
	downloadedAt := record.DownloadedAt
	if downloadedAt.IsZero() {
		downloadedAt = time.Now()
	}

	query := `
		INSERT INTO downloads (item_id, title, channel_title, thumbnail, quality, path, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET title = excluded.title, channel_title = excluded.channel_title,
			thumbnail = excluded.thumbnail, quality = excluded.quality, path = excluded.path,
			downloaded_at = excluded.downloaded_at
	`

	_, err := r.db.Exec(query, record.ItemID, record.Title, record.ChannelTitle, record.Thumbnail,
		record.Quality, record.Path, downloadedAt)
	if err != nil {
		return fmt.Errorf("failed to mark download: %w", err)
	}

	return nil
}

// IsMarked reports whether an item has a downloaded marker.
func (r *HistoryRepository) IsMarked(itemID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM downloads WHERE item_id = ?)`, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check download marker: %w", err)
	}
	return exists, nil
}

// List returns all downloaded markers, most recent first.
func (r *HistoryRepository) List() ([]models.DownloadRecord, error) {
	query := `
		SELECT item_id, title, channel_title, thumbnail, quality, path, downloaded_at
		FROM downloads
		ORDER BY downloaded_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var records []models.DownloadRecord
	for rows.Next() {
		var rec models.DownloadRecord
		err := rows.Scan(&rec.ItemID, &rec.Title, &rec.ChannelTitle, &rec.Thumbnail,
			&rec.Quality, &rec.Path, &rec.DownloadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Prune removes markers older than maxAge and returns how many were removed.
// A non-positive maxAge falls back to [DefaultHistoryMaxAge].
func (r *HistoryRepository) Prune(maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		maxAge = DefaultHistoryMaxAge
	}

	cutoff := time.Now().Add(-maxAge)
	result, err := r.db.Exec(`DELETE FROM downloads WHERE downloaded_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune downloads: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return removed, nil
}

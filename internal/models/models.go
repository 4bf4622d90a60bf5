// package models defines the data model for the shorts download client
package models

import (
	"fmt"
	"strings"
	"time"
)

// Profile is the minimal user record cached alongside the bearer token so the
// CLI can display account details without a server round trip.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Video represents a single short-form video from the catalog search API.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	Thumbnail    string    `json:"thumbnail"`
	PublishedAt  time.Time `json:"published_at"`
}

// Channel represents a channel result from the catalog search API.
type Channel struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CustomURL   string `json:"custom_url"`
	Thumbnail   string `json:"thumbnail"`
}

// SearchPage is one page of catalog results together with the opaque cursor
// for the page after it. An empty NextCursor means no further pages.
type SearchPage struct {
	Videos     []Video   `json:"videos,omitempty"`
	Channels   []Channel `json:"channels,omitempty"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// Format describes one quality/format descriptor available for an item.
type Format struct {
	ID         string  `json:"id"`
	Resolution string  `json:"resolution"`
	Extension  string  `json:"ext"`
	SizeMB     float64 `json:"size_mb"`
}

// SessionState enumerates the states of a download session.
type SessionState string

const (
	StateIdle         SessionState = "idle"
	StateStarting     SessionState = "starting"
	StateTransferring SessionState = "transferring"
	StateFinalizing   SessionState = "finalizing"
	StateCompleted    SessionState = "completed"
	StateFailed       SessionState = "failed"
)

// Terminal reports whether no further transition can occur for the session.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Progress is the observable transfer position of a download session.
// PercentComplete is monotonically non-decreasing until a terminal state.
type Progress struct {
	PercentComplete  float64 `json:"percent_complete"`
	BytesTransferred int64   `json:"bytes_transferred"`
	BytesTotal       int64   `json:"bytes_total"`
	TransferRateMBps float64 `json:"transfer_rate_mbps"`
}

// ProgressEvent is one discrete status event from the server push channel.
type ProgressEvent struct {
	Status       string  `json:"status"`
	Percent      float64 `json:"percent"`
	DownloadedMB float64 `json:"downloaded_mb"`
	TotalMB      float64 `json:"total_mb"`
	SpeedMBps    float64 `json:"speed_mbps"`
	Filename     string  `json:"filename,omitempty"`
	Error        string  `json:"error,omitempty"`
	Message      string  `json:"message,omitempty"`
}

// Push channel event statuses, in server-emission order for a successful run:
// starting → downloading... → finished/processing → completed.
const (
	EventStarting    = "starting"
	EventDownloading = "downloading"
	EventFinished    = "finished"
	EventProcessing  = "processing"
	EventCompleted   = "completed"
	EventError       = "error"
)

// Validate checks that the event carries a known status.
func (e ProgressEvent) Validate() error {
	switch e.Status {
	case EventStarting, EventDownloading, EventFinished, EventProcessing, EventCompleted, EventError:
		return nil
	case "":
		return fmt.Errorf("progress event missing status")
	default:
		return fmt.Errorf("unknown progress event status %q", e.Status)
	}
}

// TerminalEvent reports whether the event ends the push channel sequence.
func (e ProgressEvent) TerminalEvent() bool {
	return e.Status == EventCompleted || e.Status == EventError
}

// MetadataOptions selects the extra assets bundled with a download.
// With any option beyond the video enabled the backend returns an archive.
type MetadataOptions struct {
	SaveVideo       bool   `json:"save_video"`
	SaveDescription bool   `json:"save_description"`
	SaveLinks       bool   `json:"save_links"`
	LinkFilter      string `json:"link_filter,omitempty"`
}

// WantsArchive reports whether the options require the archive endpoint.
func (m MetadataOptions) WantsArchive() bool {
	return m.SaveDescription || m.SaveLinks
}

// DownloadRecord marks an item as previously downloaded in the local store.
type DownloadRecord struct {
	ItemID       string    `json:"item_id"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channel_title"`
	Thumbnail    string    `json:"thumbnail"`
	Quality      string    `json:"quality"`
	Path         string    `json:"path"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// SearchKind discriminates video and channel searches.
type SearchKind string

const (
	SearchVideos   SearchKind = "videos"
	SearchChannels SearchKind = "channels"
)

// SearchParams are the immutable query parameters of one active search.
// They are reused verbatim when paging forward or backward.
type SearchParams struct {
	Kind      SearchKind `json:"kind"`
	Term      string     `json:"term"`
	ChannelID string     `json:"channel_id,omitempty"`
	Order     string     `json:"order,omitempty"` // "date" (newest first) or "date:asc"
	PageSize  int        `json:"page_size,omitempty"`
}

// Validate checks the parameters before any network call.
func (p SearchParams) Validate() error {
	switch p.Kind {
	case SearchVideos:
		if strings.TrimSpace(p.Term) == "" && strings.TrimSpace(p.ChannelID) == "" {
			return fmt.Errorf("video search requires a term or a channel")
		}
	case SearchChannels:
		if strings.TrimSpace(p.Term) == "" {
			return fmt.Errorf("channel search requires a term")
		}
	default:
		return fmt.Errorf("unknown search kind %q", p.Kind)
	}
	if p.PageSize < 0 || p.PageSize > 50 {
		return fmt.Errorf("page size must be between 0 and 50")
	}
	return nil
}

// SearchRecord is a persisted search history entry.
type SearchRecord struct {
	Term      string     `json:"term"`
	ChannelID string     `json:"channel_id,omitempty"`
	Order     string     `json:"order,omitempty"`
	Kind      SearchKind `json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
}

// YouTube Data API [SearchService] implementation
//
// Uses the keyed v3 search endpoint. Only the snippet part is requested;
// responses carry an opaque nextPageToken which is passed through verbatim.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

const (
	defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"
	defaultPageSize       = 25
)

var channelIDPattern = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)

var channelURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/channel/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/@([a-zA-Z0-9_.-]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/c/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/user/([a-zA-Z0-9_-]+)`),
}

type youtubeThumbnail struct {
	URL string `json:"url"`
}

type youtubeThumbnails struct {
	Default youtubeThumbnail `json:"default"`
	Medium  youtubeThumbnail `json:"medium"`
}

type youtubeSnippet struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	ChannelID    string            `json:"channelId"`
	ChannelTitle string            `json:"channelTitle"`
	CustomURL    string            `json:"customUrl"`
	PublishedAt  time.Time         `json:"publishedAt"`
	Thumbnails   youtubeThumbnails `json:"thumbnails"`
}

type youtubeResultID struct {
	VideoID   string `json:"videoId"`
	ChannelID string `json:"channelId"`
}

type youtubeSearchItem struct {
	ID      youtubeResultID `json:"id"`
	Snippet youtubeSnippet  `json:"snippet"`
}

type youtubeSearchResponse struct {
	NextPageToken string              `json:"nextPageToken"`
	Items         []youtubeSearchItem `json:"items"`
}

type youtubeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// YouTubeService implements [SearchService] against the YouTube Data API.
type YouTubeService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewYouTubeService creates a new catalog search client with the given API key.
func NewYouTubeService(apiKey, baseURL string, client *http.Client) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &YouTubeService{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: client,
	}
}

// Name returns the provider name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// Search runs one page of a catalog search and returns results plus the
// opaque next-page cursor. Video searches are restricted to short-duration
// content and ordered by publish date; "date:asc" reverses the page order
// client-side since the API only sorts newest-first.
func (y *YouTubeService) Search(ctx context.Context, params models.SearchParams, cursor string) (*models.SearchPage, error) {
	if y.apiKey == "" {
		return nil, fmt.Errorf("%w: YouTube API key not configured", shared.ErrMissingCredentials)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	pageSize := params.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("maxResults", strconv.Itoa(pageSize))
	q.Set("key", y.apiKey)
	if params.Term != "" {
		q.Set("q", params.Term)
	}
	if cursor != "" {
		q.Set("pageToken", cursor)
	}

	switch params.Kind {
	case models.SearchVideos:
		q.Set("type", "video")
		q.Set("videoDuration", "short")
		q.Set("order", "date")
		if params.ChannelID != "" {
			q.Set("channelId", params.ChannelID)
		}
	case models.SearchChannels:
		q.Set("type", "channel")
	}

	result, err := y.doSearch(ctx, q)
	if err != nil {
		return nil, err
	}

	page := &models.SearchPage{NextCursor: result.NextPageToken}
	switch params.Kind {
	case models.SearchVideos:
		for _, item := range result.Items {
			if item.ID.VideoID == "" {
				continue
			}
			page.Videos = append(page.Videos, models.Video{
				ID:           item.ID.VideoID,
				Title:        item.Snippet.Title,
				ChannelID:    item.Snippet.ChannelID,
				ChannelTitle: item.Snippet.ChannelTitle,
				Thumbnail:    pickThumbnail(item.Snippet.Thumbnails),
				PublishedAt:  item.Snippet.PublishedAt,
			})
		}
		sortVideos(page.Videos, params.Order)
	case models.SearchChannels:
		for _, item := range result.Items {
			id := item.ID.ChannelID
			if id == "" {
				id = item.Snippet.ChannelID
			}
			if id == "" {
				continue
			}
			page.Channels = append(page.Channels, models.Channel{
				ID:          id,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
				CustomURL:   item.Snippet.CustomURL,
				Thumbnail:   pickThumbnail(item.Snippet.Thumbnails),
			})
		}
	}

	return page, nil
}

// ResolveChannel resolves a channel reference into a channel ID.
//
// Accepts UC ids verbatim, extracts ids from /channel/ URLs, and falls back
// to a channel search for @handles, /c/ and /user/ URLs, and bare terms.
func (y *YouTubeService) ResolveChannel(ctx context.Context, urlOrID string) (string, error) {
	trimmed := strings.TrimSpace(urlOrID)
	if trimmed == "" {
		return "", fmt.Errorf("%w: channel reference is empty", shared.ErrInvalidArgument)
	}

	if channelIDPattern.MatchString(trimmed) {
		return trimmed, nil
	}

	for _, pattern := range channelURLPatterns {
		match := pattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		identifier := match[1]
		if channelIDPattern.MatchString(identifier) {
			return identifier, nil
		}
		return y.searchChannelID(ctx, identifier)
	}

	if strings.Contains(trimmed, "http") || strings.Contains(trimmed, "youtube") {
		return "", fmt.Errorf("%w: unrecognized channel URL %q", shared.ErrInvalidArgument, trimmed)
	}

	return y.searchChannelID(ctx, strings.TrimPrefix(trimmed, "@"))
}

// searchChannelID finds the best channel match for a handle or search term.
func (y *YouTubeService) searchChannelID(ctx context.Context, term string) (string, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("q", term)
	q.Set("type", "channel")
	q.Set("maxResults", "5")
	q.Set("key", y.apiKey)

	result, err := y.doSearch(ctx, q)
	if err != nil {
		return "", err
	}
	if len(result.Items) == 0 {
		return "", fmt.Errorf("%w: no channel matches %q", shared.ErrItemNotFound, term)
	}

	lower := strings.ToLower(term)
	for _, item := range result.Items {
		id := item.ID.ChannelID
		if id == "" {
			id = item.Snippet.ChannelID
		}
		if strings.ToLower(item.Snippet.CustomURL) == "@"+lower {
			return id, nil
		}
		if strings.ToLower(item.Snippet.Title) == lower {
			return id, nil
		}
	}

	// No exact handle or title match; take the top-ranked result.
	if id := result.Items[0].ID.ChannelID; id != "" {
		return id, nil
	}
	return result.Items[0].Snippet.ChannelID, nil
}

func (y *YouTubeService) doSearch(ctx context.Context, query url.Values) (*youtubeSearchResponse, error) {
	apiURL := y.baseURL + "/search?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp youtubeErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, errResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var result youtubeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

func pickThumbnail(t youtubeThumbnails) string {
	if t.Medium.URL != "" {
		return t.Medium.URL
	}
	return t.Default.URL
}

// sortVideos orders results by publish date. The API returns newest-first;
// the sort is still applied so the ordering holds regardless of upstream
// quirks.
func sortVideos(videos []models.Video, order string) {
	asc := order == "date:asc"
	sort.SliceStable(videos, func(i, j int) bool {
		if asc {
			return videos[i].PublishedAt.Before(videos[j].PublishedAt)
		}
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})
}

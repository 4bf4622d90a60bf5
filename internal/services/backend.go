// Download backend client
//
// Credential endpoints, format listing, the server-push progress channel,
// and binary artifact retrieval against the transcode backend.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

const defaultBackendBaseURL = "http://localhost:5000"

// BackendService is the HTTP client for the download/transcode backend.
type BackendService struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendService creates a new backend client.
func NewBackendService(baseURL string, client *http.Client) *BackendService {
	if baseURL == "" {
		baseURL = defaultBackendBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &BackendService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string          `json:"access_token"`
	User        *models.Profile `json:"user"`
	Error       string          `json:"error"`
}

// Login exchanges credentials for a bearer token and profile.
func (b *BackendService) Login(ctx context.Context, email, password string) (string, *models.Profile, error) {
	return b.authenticate(ctx, "/api/auth/login", email, password)
}

// Register creates an account and returns the bearer token and profile.
func (b *BackendService) Register(ctx context.Context, email, password string) (string, *models.Profile, error) {
	return b.authenticate(ctx, "/api/auth/register", email, password)
}

func (b *BackendService) authenticate(ctx context.Context, path, email, password string) (string, *models.Profile, error) {
	payload, err := json.Marshal(authRequest{Email: email, Password: password})
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", shared.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The error body is not guaranteed to be JSON; a proxy can answer
		// with an HTML page. Decode the reason opportunistically and fall
		// back to the status code.
		var failure authResponse
		reason := fmt.Sprintf("status %d", resp.StatusCode)
		if err := json.Unmarshal(body, &failure); err == nil && failure.Error != "" {
			reason = failure.Error
		}
		if resp.StatusCode >= 500 {
			return "", nil, fmt.Errorf("%w: %s", shared.ErrServer, reason)
		}
		return "", nil, fmt.Errorf("%w: %s", shared.ErrAuthRejected, reason)
	}

	var result authResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.AccessToken == "" {
		return "", nil, fmt.Errorf("%w: response missing access token", shared.ErrServer)
	}

	return result.AccessToken, result.User, nil
}

// Logout notifies the server that the token should be discarded.
func (b *BackendService) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrServer, resp.StatusCode)
	}
	return nil
}

// Verify asks the server whether the token is still valid.
//
// A 401 returns [shared.ErrAuthRejected]; that is the only outcome that may
// invalidate a stored credential. Transport and server failures are returned
// as their own kinds so callers can treat the token as still valid.
func (b *BackendService) Verify(ctx context.Context, token string) (*models.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/auth/verify", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: token invalid or expired", shared.ErrAuthRejected)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrServer, resp.StatusCode)
	}

	var result struct {
		User *models.Profile `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.User, nil
}

// Formats lists the quality/format descriptors available for an item.
func (b *BackendService) Formats(ctx context.Context, itemID string) ([]models.Format, error) {
	q := url.Values{}
	q.Set("videoId", itemID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/formats?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if err := b.checkStatus(resp); err != nil {
		return nil, err
	}

	var result struct {
		Formats []models.Format `json:"formats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Formats) == 0 {
		return nil, fmt.Errorf("%w for item %s", shared.ErrNoFormats, itemID)
	}

	return result.Formats, nil
}

// OpenProgress opens the server-push progress channel for a download.
//
// The push transport cannot carry custom headers, so the bearer token rides
// in the query string.
func (b *BackendService) OpenProgress(ctx context.Context, itemID, quality, token string) (EventStream, error) {
	q := url.Values{}
	q.Set("videoId", itemID)
	q.Set("quality", quality)
	q.Set("progress", "true")
	q.Set("token", token)

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/download?"+q.Encode(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectivity, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: token invalid or expired", shared.ErrAuthRejected)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: status %d", shared.ErrServer, resp.StatusCode)
	}

	return newProgressStream(resp.Body, cancel), nil
}

// FetchArtifact retrieves the finished binary for an item with bearer auth.
func (b *BackendService) FetchArtifact(ctx context.Context, token, itemID, quality string) (*Artifact, error) {
	q := url.Values{}
	q.Set("videoId", itemID)
	q.Set("quality", quality)

	return b.fetchBinary(ctx, token, "/api/download?"+q.Encode())
}

// FetchWithMetadata retrieves the artifact bundled with the selected
// metadata assets. The backend returns an archive when anything beyond the
// raw media is requested.
func (b *BackendService) FetchWithMetadata(ctx context.Context, token, itemID, quality string, opts models.MetadataOptions) (*Artifact, error) {
	q := url.Values{}
	q.Set("videoId", itemID)
	q.Set("quality", quality)
	q.Set("saveVideo", strconv.FormatBool(opts.SaveVideo))
	q.Set("saveDescription", strconv.FormatBool(opts.SaveDescription))
	q.Set("saveLinks", strconv.FormatBool(opts.SaveLinks))
	if opts.LinkFilter != "" {
		q.Set("linkFilter", opts.LinkFilter)
	}

	return b.fetchBinary(ctx, token, "/api/download-with-metadata?"+q.Encode())
}

func (b *BackendService) fetchBinary(ctx context.Context, token, pathAndQuery string) (*Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectivity, err)
	}

	if err := b.checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return &Artifact{
		Filename: filenameFromHeader(resp.Header.Get("Content-Disposition")),
		Body:     resp.Body,
		Length:   resp.ContentLength,
	}, nil
}

// checkStatus maps a non-2xx response onto the shared error sentinels,
// draining any JSON error body for the server-supplied reason.
func (b *BackendService) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: token invalid or expired", shared.ErrAuthRejected)
	case http.StatusNotFound:
		return fmt.Errorf("%w", shared.ErrItemNotFound)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		reason := errResp.Error
		if errResp.Message != "" {
			reason = fmt.Sprintf("%s: %s", errResp.Error, errResp.Message)
		}
		return fmt.Errorf("%w: %s", shared.ErrServer, reason)
	}

	return fmt.Errorf("%w: status %d", shared.ErrServer, resp.StatusCode)
}

// filenameFromHeader extracts the attachment filename from a
// Content-Disposition header value, or returns empty.
func filenameFromHeader(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// WatchURL returns the public watch page for an item, offered to the user as
// a manual retrieval hint when automated download paths are exhausted.
func WatchURL(itemID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(itemID)
}

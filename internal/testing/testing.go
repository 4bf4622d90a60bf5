// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
)

// MockSearchService is a test double for [services.SearchService]
type MockSearchService struct {
	Pages      map[string]*models.SearchPage // keyed by cursor ("" = first page)
	SearchErr  error
	ResolveID  string
	ResolveErr error
	Calls      []models.SearchParams
}

func (m *MockSearchService) Search(ctx context.Context, params models.SearchParams, cursor string) (*models.SearchPage, error) {
	m.Calls = append(m.Calls, params)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if page, ok := m.Pages[cursor]; ok {
		return page, nil
	}
	return &models.SearchPage{}, nil
}

func (m *MockSearchService) ResolveChannel(ctx context.Context, urlOrID string) (string, error) {
	if m.ResolveErr != nil {
		return "", m.ResolveErr
	}
	if m.ResolveID != "" {
		return m.ResolveID, nil
	}
	return urlOrID, nil
}

func (m *MockSearchService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter succeeds for a fixed number of writes, then fails.
type LimitedWriter struct {
	remaining int
	w         io.Writer
}

func NewLimitedWriter(writes int, w io.Writer) LimitedWriter {
	return LimitedWriter{remaining: writes, w: w}
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.remaining <= 0 {
		return 0, errors.New("write limit reached")
	}
	l.remaining--
	return l.w.Write(p)
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// DrainReader consumes a reader fully, failing the test on error.
func DrainReader(t *testing.T, r io.Reader) []byte {
	t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	return data
}

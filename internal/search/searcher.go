package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

// Service is the catalog search surface consumed by the searcher.
type Service interface {
	Search(ctx context.Context, params models.SearchParams, cursor string) (*models.SearchPage, error)
	ResolveChannel(ctx context.Context, urlOrID string) (string, error)
	Name() string
}

// HistoryRecorder persists recent search terms.
type HistoryRecorder interface {
	SaveSearch(params models.SearchParams) error
}

// Searcher runs paginated catalog searches, tracking position so results can
// be walked forward and backward with only forward cursors from the provider.
type Searcher struct {
	service Service
	tracker *CursorTracker
	history HistoryRecorder
	logger  *log.Logger

	params models.SearchParams
	active bool
}

// NewSearcher creates a searcher over the given provider. The history
// recorder may be nil to skip persistence.
func NewSearcher(service Service, history HistoryRecorder, logger *log.Logger) *Searcher {
	return &Searcher{
		service: service,
		tracker: NewCursorTracker(),
		history: history,
		logger:  logger,
	}
}

// Start begins a new search and returns its first page.
//
// Channel references in the params are resolved to channel IDs before the
// first request, and the search is recorded in history once the provider
// accepts it.
func (s *Searcher) Start(ctx context.Context, params models.SearchParams) (*models.SearchPage, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	if params.Kind == models.SearchVideos && params.ChannelID != "" {
		resolved, err := s.service.ResolveChannel(ctx, params.ChannelID)
		if err != nil {
			return nil, err
		}
		if resolved != params.ChannelID {
			s.logger.Debug("resolved channel reference", "input", params.ChannelID, "id", resolved)
		}
		params.ChannelID = resolved
	}

	s.tracker.StartSearch()
	page, err := s.fetch(ctx, params, "")
	if err != nil {
		return nil, err
	}

	s.params = params
	s.active = true

	if s.history != nil && strings.TrimSpace(params.Term) != "" {
		if err := s.history.SaveSearch(params); err != nil {
			s.logger.Debug("failed to record search history", "error", err)
		}
	}

	return page, nil
}

// Next fetches the page after the current one.
func (s *Searcher) Next(ctx context.Context) (*models.SearchPage, error) {
	if !s.active {
		return nil, fmt.Errorf("%w: no active search", shared.ErrInvalidArgument)
	}

	cursor, err := s.tracker.Advance()
	if err != nil {
		return nil, err
	}

	page, err := s.fetch(ctx, s.params, cursor)
	if err != nil {
		// Roll the position back so a retry refetches the same page.
		if _, rerr := s.tracker.Retreat(); rerr != nil {
			s.logger.Debug("failed to roll back pagination position", "error", rerr)
			return nil, err
		}
		s.tracker.RecordPage(cursor)
		return nil, err
	}
	return page, nil
}

// Prev refetches the page before the current one.
func (s *Searcher) Prev(ctx context.Context) (*models.SearchPage, error) {
	if !s.active {
		return nil, fmt.Errorf("%w: no active search", shared.ErrInvalidArgument)
	}

	popped := s.tracker.Current()
	forward := s.tracker.NextCursor()
	cursor, err := s.tracker.Retreat()
	if err != nil {
		return nil, err
	}

	page, err := s.fetch(ctx, s.params, cursor)
	if err != nil {
		// Restore the position, forward cursor included, so both a retry
		// and a Next still work from the page the user was on.
		s.tracker.RecordPage(popped)
		if _, rerr := s.tracker.Advance(); rerr != nil {
			s.logger.Debug("failed to restore pagination position", "error", rerr)
			return nil, err
		}
		s.tracker.RecordPage(forward)
		return nil, err
	}
	return page, nil
}

// Page returns the 1-based number of the current page.
func (s *Searcher) Page() int {
	return s.tracker.Page()
}

// HasNext reports whether the provider offered a page after the current one.
func (s *Searcher) HasNext() bool {
	return s.tracker.HasNext()
}

// HasPrev reports whether a previous page exists.
func (s *Searcher) HasPrev() bool {
	return s.tracker.Page() > 1
}

// Params returns the parameters of the active search.
func (s *Searcher) Params() models.SearchParams {
	return s.params
}

func (s *Searcher) fetch(ctx context.Context, params models.SearchParams, cursor string) (*models.SearchPage, error) {
	page, err := s.service.Search(ctx, params, cursor)
	if err != nil {
		return nil, err
	}
	s.tracker.RecordPage(page.NextCursor)
	return page, nil
}

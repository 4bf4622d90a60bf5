package services

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
)

// ProgressStream decodes the backend's server-push progress channel into a
// Go channel of [models.ProgressEvent].
//
// The wire format is one JSON event per SSE data line. Comment lines and
// non-data SSE fields are skipped; malformed event payloads are dropped
// rather than terminating the stream.
type ProgressStream struct {
	events    chan models.ProgressEvent
	done      chan struct{}
	body      io.ReadCloser
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// newProgressStream wraps a response body and starts the decode loop.
func newProgressStream(body io.ReadCloser, cancel context.CancelFunc) *ProgressStream {
	s := &ProgressStream{
		events: make(chan models.ProgressEvent, 8),
		done:   make(chan struct{}),
		body:   body,
		cancel: cancel,
	}
	go s.run()
	return s
}

// Events returns the decoded event channel. It is closed when a terminal
// event arrives, the stream is closed, or the transport fails.
func (s *ProgressStream) Events() <-chan models.ProgressEvent {
	return s.events
}

// Err reports a transport failure that ended the stream, if any. Valid to
// call once Events has been closed.
func (s *ProgressStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears down the stream and stops event processing. Idempotent.
func (s *ProgressStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
		s.body.Close()
	})
	return nil
}

func (s *ProgressStream) run() {
	defer close(s.events)
	defer s.Close()

	scanner := bufio.NewScanner(s.body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		// SSE frames carry the payload on data: lines; other field names
		// (event:, id:, retry:) are ignored. Bare JSON lines are accepted
		// for transports that skip SSE framing.
		if idx := strings.Index(line, ":"); idx > 0 && !strings.HasPrefix(line, "{") {
			if strings.TrimSpace(line[:idx]) != "data" {
				continue
			}
			line = strings.TrimSpace(line[idx+1:])
		}

		var event models.ProgressEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}
		if err := event.Validate(); err != nil {
			continue
		}

		select {
		case s.events <- event:
		case <-s.done:
			return
		}

		if event.TerminalEvent() {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}
}

package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
)

func collectEvents(t *testing.T, s EventStream) []models.ProgressEvent {
	t.Helper()

	var events []models.ProgressEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-s.Events():
			if !ok {
				return events
			}
			events = append(events, event)
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
}

func TestProgressStream(t *testing.T) {
	t.Run("Decodes Data Lines", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader(
			"data: {\"status\":\"starting\"}\n\n" +
				"data: {\"status\":\"downloading\",\"percent\":42.5,\"downloaded_mb\":1.2,\"total_mb\":2.8}\n\n" +
				"data: {\"status\":\"completed\",\"filename\":\"clip.mp4\"}\n\n"))
		_, cancel := context.WithCancel(context.Background())
		s := newProgressStream(body, cancel)

		events := collectEvents(t, s)
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		if events[0].Status != models.EventStarting {
			t.Errorf("expected starting, got %s", events[0].Status)
		}
		if events[1].Percent != 42.5 {
			t.Errorf("expected percent 42.5, got %f", events[1].Percent)
		}
		if events[2].Filename != "clip.mp4" {
			t.Errorf("expected filename, got %s", events[2].Filename)
		}
	})

	t.Run("Stops After Terminal Event", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader(
			"data: {\"status\":\"error\",\"error\":\"yt-dlp failed\"}\n\n" +
				"data: {\"status\":\"downloading\",\"percent\":50}\n\n"))
		_, cancel := context.WithCancel(context.Background())
		s := newProgressStream(body, cancel)

		events := collectEvents(t, s)
		if len(events) != 1 {
			t.Fatalf("expected decoding to stop at terminal event, got %d events", len(events))
		}
		if events[0].Status != models.EventError {
			t.Errorf("expected error event, got %s", events[0].Status)
		}
	})

	t.Run("Skips Comments And Malformed Payloads", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader(
			": keep-alive\n" +
				"event: progress\n" +
				"data: not-json\n\n" +
				"data: {\"status\":\"bogus\"}\n\n" +
				"data: {\"status\":\"finished\"}\n\n"))
		_, cancel := context.WithCancel(context.Background())
		s := newProgressStream(body, cancel)

		events := collectEvents(t, s)
		if len(events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(events))
		}
		if events[0].Status != models.EventFinished {
			t.Errorf("expected finished, got %s", events[0].Status)
		}
	})

	t.Run("Accepts Bare JSON Lines", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader("{\"status\":\"completed\"}\n"))
		_, cancel := context.WithCancel(context.Background())
		s := newProgressStream(body, cancel)

		events := collectEvents(t, s)
		if len(events) != 1 || events[0].Status != models.EventCompleted {
			t.Errorf("expected completed event, got %+v", events)
		}
	})

	t.Run("Close Is Idempotent", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader(""))
		_, cancel := context.WithCancel(context.Background())
		s := newProgressStream(body, cancel)

		if err := s.Close(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("expected no error on second close, got %v", err)
		}
		collectEvents(t, s)
		if err := s.Err(); err != nil {
			t.Errorf("expected no transport error, got %v", err)
		}
	})
}

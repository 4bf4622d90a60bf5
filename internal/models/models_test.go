package models

import "testing"

func TestSessionState_Terminal(t *testing.T) {
	tc := []struct {
		state SessionState
		want  bool
	}{
		{StateIdle, false},
		{StateStarting, false},
		{StateTransferring, false},
		{StateFinalizing, false},
		{StateCompleted, true},
		{StateFailed, true},
	}

	for _, tt := range tc {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressEvent(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		for _, status := range []string{EventStarting, EventDownloading, EventFinished, EventProcessing, EventCompleted, EventError} {
			if err := (ProgressEvent{Status: status}).Validate(); err != nil {
				t.Errorf("expected %q to be valid: %v", status, err)
			}
		}
		if err := (ProgressEvent{}).Validate(); err == nil {
			t.Error("expected missing status to be invalid")
		}
		if err := (ProgressEvent{Status: "paused"}).Validate(); err == nil {
			t.Error("expected unknown status to be invalid")
		}
	})

	t.Run("TerminalEvent", func(t *testing.T) {
		if !(ProgressEvent{Status: EventCompleted}).TerminalEvent() {
			t.Error("completed should be terminal")
		}
		if !(ProgressEvent{Status: EventError}).TerminalEvent() {
			t.Error("error should be terminal")
		}
		if (ProgressEvent{Status: EventProcessing}).TerminalEvent() {
			t.Error("processing should not be terminal")
		}
	})
}

func TestSearchParams_Validate(t *testing.T) {
	tc := []struct {
		name    string
		params  SearchParams
		wantErr bool
	}{
		{
			name:   "video search with term",
			params: SearchParams{Kind: SearchVideos, Term: "cats"},
		},
		{
			name:   "video search with channel only",
			params: SearchParams{Kind: SearchVideos, ChannelID: "UC123"},
		},
		{
			name:    "video search with neither",
			params:  SearchParams{Kind: SearchVideos},
			wantErr: true,
		},
		{
			name:   "channel search with term",
			params: SearchParams{Kind: SearchChannels, Term: "science"},
		},
		{
			name:    "channel search without term",
			params:  SearchParams{Kind: SearchChannels},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			params:  SearchParams{Kind: "playlists", Term: "x"},
			wantErr: true,
		},
		{
			name:    "page size out of range",
			params:  SearchParams{Kind: SearchVideos, Term: "x", PageSize: 100},
			wantErr: true,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMetadataOptions_WantsArchive(t *testing.T) {
	if (MetadataOptions{SaveVideo: true}).WantsArchive() {
		t.Error("video-only download should not need the archive endpoint")
	}
	if !(MetadataOptions{SaveVideo: true, SaveDescription: true}).WantsArchive() {
		t.Error("description requires the archive endpoint")
	}
	if !(MetadataOptions{SaveLinks: true, LinkFilter: "http"}).WantsArchive() {
		t.Error("links require the archive endpoint")
	}
}

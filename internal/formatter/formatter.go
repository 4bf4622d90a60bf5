// package formatter renders search results, formats, and download outcomes for display and export
package formatter

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Jakson-Almeida/shortsgrab/internal/models"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

// VideoTable renders a page of video results as an aligned text table.
func VideoTable(videos []models.Video, page int) []byte {
	var buf bytes.Buffer

	if len(videos) == 0 {
		buf.WriteString("No videos found.\n")
		return buf.Bytes()
	}

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tTITLE\tCHANNEL\tPUBLISHED")
	for i, v := range videos {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i+1, v.ID, truncate(v.Title, 48), truncate(v.ChannelTitle, 24), v.PublishedAt.Format("2006-01-02"))
	}
	w.Flush()

	fmt.Fprintf(&buf, "\nPage %d (%d videos)\n", page, len(videos))
	return buf.Bytes()
}

// ChannelTable renders channel results as an aligned text table.
func ChannelTable(channels []models.Channel) []byte {
	var buf bytes.Buffer

	if len(channels) == 0 {
		buf.WriteString("No channels found.\n")
		return buf.Bytes()
	}

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tTITLE\tHANDLE")
	for i, c := range channels {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, c.ID, truncate(c.Title, 32), c.CustomURL)
	}
	w.Flush()
	return buf.Bytes()
}

// FormatTable renders the quality/format descriptors for an item.
func FormatTable(itemID string, formats []models.Format) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Formats for %s:\n\n", itemID)
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRESOLUTION\tEXT\tSIZE")
	for _, f := range formats {
		size := "-"
		if f.SizeMB > 0 {
			size = fmt.Sprintf("%.1f MB", f.SizeMB)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.ID, f.Resolution, f.Extension, size)
	}
	w.Flush()
	return buf.Bytes()
}

// HistoryTable renders download history records, newest first.
func HistoryTable(records []models.DownloadRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No downloads recorded.\n")
		return buf.Bytes()
	}

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tQUALITY\tDOWNLOADED\tPATH")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ItemID, truncate(r.Title, 40), r.Quality, r.DownloadedAt.Format("2006-01-02 15:04"), r.Path)
	}
	w.Flush()
	return buf.Bytes()
}

// SearchHistoryList renders persisted search terms, newest first.
func SearchHistoryList(records []models.SearchRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No recent searches.\n")
		return buf.Bytes()
	}

	for i, r := range records {
		scope := ""
		if r.ChannelID != "" {
			scope = fmt.Sprintf(" (channel %s)", r.ChannelID)
		}
		fmt.Fprintf(&buf, "%d. [%s] %s%s\n", i+1, r.Kind, r.Term, scope)
	}
	return buf.Bytes()
}

// batchManifest is the envelope written around a batch result.
type batchManifest struct {
	GeneratedAt time.Time `json:"generated_at"`
	Result      any       `json:"result"`
}

// WriteBatchManifest writes a JSON manifest summarizing a batch download.
//
// The result parameter is kept loosely typed so callers in other packages can
// pass their own result structs without an import cycle.
func WriteBatchManifest(result any, path string) error {
	manifest := batchManifest{
		GeneratedAt: time.Now().UTC(),
		Result:      result,
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

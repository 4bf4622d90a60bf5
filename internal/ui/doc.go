// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing and downloading shorts:
//  1. [ResultListView] : Browse a page of search results, paging forward and back
//  2. [ConfirmView] : Confirm the download of the selected video
//  3. [DownloadView] : Monitor real-time transfer progress
//  4. [ResultView] : Display the saved path or the failure reason
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the DownloadEngine, providing non-blocking status reporting during transfers.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, n/p, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

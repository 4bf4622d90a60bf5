// Package tasks orchestrates download sessions against the transcode backend with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines two operations:
//
//  1. [Engine.Download] : Single item download
//     - Opens the server-push progress channel and walks the session state machine
//     - Retrieves the finished artifact and saves it to the download directory
//     - Degrades to direct retrieval when the progress channel fails
//
//  2. [Engine.Batch] : Concurrent multi-item download
//     - Worker pool with rate limiting
//     - Item failures are isolated; siblings keep running
//     - Writes a manifest summarizing the batch outcome
//
// # Session States
//
// A download session moves through [models.SessionState] in order:
// Idle, Starting, Transferring, Finalizing, then Completed or Failed.
// Progress events from the backend drive the transitions; events that would
// move a session backward are ignored.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, percent, transfer counters, and messages for UI rendering.
// Updates use select with default to prevent blocking.
//
// # Credential Handling
//
// An authentication rejection aborts the session immediately with no
// degradation attempts. Every other failure kind leaves the stored credential
// untouched and may fall back to direct retrieval.
package tasks

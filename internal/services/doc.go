// Package services implements the HTTP clients the downloader is built on.
//
// # Catalog Search
//
// [YouTubeService] queries the keyed YouTube Data API search endpoint for
// short-form videos and channels. Results are returned as one
// [models.SearchPage] at a time together with the opaque next-page cursor the
// API handed back; the cursor is never inspected or fabricated locally.
// Channel identifiers can be resolved from full URLs, @handles, and bare
// search terms via [YouTubeService.ResolveChannel].
//
// # Download Backend
//
// [BackendService] talks to the download/transcode backend:
//   - credential endpoints (/api/auth/login, /register, /logout, /verify)
//   - format listing (/api/formats)
//   - the server-push progress channel (/api/download?progress=true), exposed
//     as a [ProgressStream] of decoded [models.ProgressEvent] values
//   - binary artifact retrieval (/api/download, /api/download-with-metadata)
//
// The push transport cannot carry request headers, so the bearer token is
// passed as a query parameter when opening a progress stream. Plain artifact
// requests authenticate with the Authorization header.
//
// # Error Handling
//
// Responses map onto the shared sentinels:
//   - [shared.ErrAuthRejected] : explicit 401 from the server
//   - [shared.ErrConnectivity] : transport-level failure, request never answered
//   - [shared.ErrItemNotFound] : 404 for the requested item
//   - [shared.ErrServer] : any other non-2xx, with the server message when present
package services

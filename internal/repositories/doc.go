// Package repositories implements SQLite persistence for the client's durable state.
//
// Key Implementations:
//   - [CredentialRepository] : single-slot bearer token + cached profile storage, the
//     source of truth for "is this client authenticated"
//   - [HistoryRepository] : already-downloaded markers with 90-day pruning
//   - [SearchRepository] : bounded, de-duplicated search history with last-search recall
//
// All repositories operate on a shared [database/sql] connection opened by
// shared.NewDatabase and migrated by shared.RunMigrations.
package repositories

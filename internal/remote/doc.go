// Package remote provides the gateway to the durable lab store.
//
// # Architecture
//
// The Gateway interface covers authentication (login, register, session
// restore, logout) and document operations (fetch, create, delete projects
// and analyze-and-save experiments). Two implementations exist:
//
//   - SQLiteGateway: durable storage using modernc.org/sqlite, bcrypt
//     password hashes, and a signed credential file for session restore
//   - MockGateway: in-memory implementation for tests
//
// # Data Models
//
//   - Project: folder of experiments owned by one researcher
//   - Experiment: immutable dose-response run with its analysis result
//   - Dose: one concentration level, index 0 is the control
//   - AnalysisResult: three equal-length derived series
//
// # Session Restore
//
// Login issues an HS256 JWT persisted through a CredentialKeeper. On the
// next start, RestoreSession verifies the token and re-resolves the
// identity. Logout deletes the credential. This makes the restore check an
// explicit one-shot operation rather than a standing subscription.
//
// # Error Handling
//
//   - ErrInvalidCredentials: bad username or password
//   - ErrUserExists: register conflict
//   - ErrNotFound: document does not exist
//   - ErrNoSession: nothing to restore
//   - ErrInvalidExperiment: experiment input failed validation
//
// All methods accept context.Context for cancellation support.
package remote

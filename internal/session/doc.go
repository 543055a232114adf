// Package session owns authentication state and the current user identity.
//
// The Manager moves through four states:
//
//	Unknown -> Authenticating -> LoggedIn | LoggedOut
//
// Restore is the explicit one-shot startup check for a prior session. Login
// is only valid from LoggedOut and triggers a project mirror load on
// success. Logout always clears local state, even when the remote
// invalidation fails, so the process can never keep acting as a stale user.
// Every operation lands in a defined state; nothing is left half
// authenticated.
package session

// Package session provides in-memory session management for the puzzle
// server.
//
// Manager stores one service.Session per player. Each session owns its own
// engine.GameEngine; all engines share the read-only piece catalog handed to
// NewManager.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand. Callers may also pick
// their own ID. Lookups are case-insensitive.
//
// Usage:
//
//	manager := session.NewManager(catalog)
//
//	sess, err := manager.Create("", puzzle)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Sessions are not persisted. CleanupExpiredSessions drops sessions that
// have been idle longer than the given age.
package session

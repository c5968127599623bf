// Package session provides in-memory storage for running games.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - UUID session identifiers
//   - Expiry of sessions that are no longer accessed
//
// Manager satisfies service.SessionManager. Each service.Session wraps one
// engine.GameEngine and its own turn lock; the manager's lock only guards the
// map, so different games never wait on each other.
//
// Usage:
//
//	manager := session.NewManager(logger)
//	sess, err := manager.Create("", eng, "duel")
//	sess, err = manager.Get(sess.ID)
//
//	// Drop games idle for a day, checking every ten minutes
//	go manager.RunCleanup(ctx, 10*time.Minute, 24*time.Hour, remotes.Forget)
//
// Sessions live only in memory and are lost on restart.
package session

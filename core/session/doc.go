// Package session provides generic server-side sessions.
//
// Session[Data] carries an application-defined payload. Manager[Data]
// creates, loads, updates and expires sessions over a Store[Data]:
//
//	store, err := session.NewFileStore[certrequest.State]("./data/sessions")
//	if err != nil {
//		return err
//	}
//	mgr := session.NewManager[certrequest.State](store, session.WithTTL(24*time.Hour))
//
// # Stores
//
//   - FileStore: one JSON file per session, written atomically. Survives restarts.
//   - RedisStore: JSON values with a Redis TTL, over any go-redis client.
//   - MemoryStore: a map, for tests and throwaway deployments.
//
// # Concurrent updates
//
// Handlers and background tasks may change the same session. Update holds a
// per-session lock while it reloads the session, applies the change and
// saves it, so concurrent writers never lose each other's changes:
//
//	_, err := mgr.Update(ctx, id, func(s *session.Session[certrequest.State]) error {
//		s.Data.Fail(requestID, failure)
//		return nil
//	})
//
// Authenticate moves the session to a new ID when a user logs in. RunCleanup
// removes expired sessions periodically.
package session

package mcppool

import "sync"

// session is the pool's record for one remote server. The name and endpoint
// are immutable. The transport/sessionID pair always originates from a single
// handshake and is only ever read or replaced together under mu; the lock is
// scoped to this server, so reconnecting one server never blocks calls to
// another.
type session struct {
	name     string
	endpoint string

	// open creates a fresh transport for this server. It captures the
	// options the server was added with, so reconnected transports keep
	// them.
	open func() Transport

	mu        sync.Mutex
	transport Transport
	sessionID string
	// broken marks a session whose reconnection window elapsed without a
	// successful handshake. The next call routes through reconnection again
	// instead of posting on the dead transport.
	broken bool
}

// snapshot returns a consistent view of the session's current state.
func (s *session) snapshot() (tr Transport, sessionID string, broken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport, s.sessionID, s.broken
}

func (s *session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport.Close()
}

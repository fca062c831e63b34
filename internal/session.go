package internal

import "github.com/google/uuid"

// Session identifies one invocation of exgt. It only lives as long as the
// request it serves.
type Session struct {
	id uuid.UUID
}

// GenerateSession creates a new session with a random identifier.
func GenerateSession() Session {
	return Session{id: uuid.New()}
}

// String returns the full session identifier.
func (s Session) String() string {
	return s.id.String()
}

// Short returns the first eight characters of the identifier, which is what
// log lines carry.
func (s Session) Short() string {
	return s.String()[:8]
}

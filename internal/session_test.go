package internal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exgt/exgt/internal"
)

func TestSession(t *testing.T) {
	t.Run("GenerateSession", func(t *testing.T) {
		t.Run("generates unique sessions", func(t *testing.T) {
			sessions := make(map[string]struct{})
			iterations := 1000

			for range iterations {
				sessions[internal.GenerateSession().String()] = struct{}{}
			}

			require.Len(t, sessions, iterations)
		})
	})

	t.Run("String", func(t *testing.T) {
		t.Run("returns a UUID", func(t *testing.T) {
			session := internal.GenerateSession()
			require.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, session.String())
		})
	})

	t.Run("Short", func(t *testing.T) {
		t.Run("returns the identifier prefix", func(t *testing.T) {
			session := internal.GenerateSession()
			require.Len(t, session.Short(), 8)
			require.True(t, len(session.String()) > 8)
			require.Equal(t, session.String()[:8], session.Short())
		})
	})
}

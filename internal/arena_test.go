package internal_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exgt/exgt/internal"
)

// countingAllocator records every buffer it hands out and every buffer it
// gets back.
type countingAllocator struct {
	allocated map[*byte]int
	freed     map[*byte]int
	fail      bool
}

func newCountingAllocator() *countingAllocator {
	return &countingAllocator{
		allocated: make(map[*byte]int),
		freed:     make(map[*byte]int),
	}
}

func (c *countingAllocator) Allocate(size int) ([]byte, error) {
	if c.fail {
		return nil, errors.New("out of memory")
	}
	// One spare byte keeps &buf[0] valid for zero-sized allocations.
	buf := make([]byte, size, size+1)
	c.allocated[&buf[:1][0]]++
	return buf, nil
}

func (c *countingAllocator) Free(buf []byte) {
	c.freed[&buf[:1][0]]++
}

type recordingCloser struct {
	name  string
	order *[]string
	err   error
}

func (r recordingCloser) Close() error {
	*r.order = append(*r.order, r.name)
	return r.err
}

func TestArena(t *testing.T) {
	t.Run("Destroy", func(t *testing.T) {
		t.Run("frees every allocation exactly once", func(t *testing.T) {
			allocator := newCountingAllocator()
			arena := internal.NewArena(internal.WithAllocator(allocator), internal.WithCapacity(2))

			for i := range 100 {
				_, err := arena.Alloc(i)
				require.NoError(t, err)
			}

			external, err := allocator.Allocate(16)
			require.NoError(t, err)
			require.NoError(t, arena.Register(external))

			require.NoError(t, arena.Destroy())

			require.Len(t, allocator.allocated, 101)
			require.Equal(t, len(allocator.allocated), len(allocator.freed))
			for ptr, count := range allocator.allocated {
				require.Equal(t, 1, count)
				require.Equal(t, 1, allocator.freed[ptr], "buffer was not freed exactly once")
			}
		})

		t.Run("is safe with zero registrations", func(t *testing.T) {
			arena := internal.NewArena()
			require.NoError(t, arena.Destroy())
		})

		t.Run("closes owned resources last first", func(t *testing.T) {
			var order []string
			arena := internal.NewArena()

			require.NoError(t, arena.Own("first", recordingCloser{name: "first", order: &order}))
			require.NoError(t, arena.Own("second", recordingCloser{name: "second", order: &order}))
			require.NoError(t, arena.Own("third", recordingCloser{name: "third", order: &order}))

			require.NoError(t, arena.Destroy())
			require.Equal(t, []string{"third", "second", "first"}, order)
		})

		t.Run("keeps releasing after a failure and reports it", func(t *testing.T) {
			var order []string
			var logs bytes.Buffer
			arena := internal.NewArena(internal.WithArenaWriter(internal.NewCustomWriter(&logs)))

			require.NoError(t, arena.Own("first", recordingCloser{name: "first", order: &order}))
			require.NoError(t, arena.Own("second", recordingCloser{name: "second", order: &order, err: errors.New("broken pipe")}))
			require.NoError(t, arena.Own("third", recordingCloser{name: "third", order: &order}))

			err := arena.Destroy()
			require.Error(t, err)
			require.Contains(t, err.Error(), "failed to release second")
			require.Equal(t, []string{"third", "second", "first"}, order)
			require.Contains(t, logs.String(), "release failed for second")
		})

		t.Run("refuses a second call", func(t *testing.T) {
			arena := internal.NewArena()
			require.NoError(t, arena.Destroy())
			require.ErrorIs(t, arena.Destroy(), internal.ErrArenaDestroyed)

			_, err := arena.Alloc(1)
			require.ErrorIs(t, err, internal.ErrArenaDestroyed)
		})
	})

	t.Run("growth", func(t *testing.T) {
		t.Run("doubles the table when full", func(t *testing.T) {
			arena := internal.NewArena(internal.WithCapacity(4))
			require.Equal(t, 4, arena.Cap())

			for range 5 {
				_, err := arena.Alloc(1)
				require.NoError(t, err)
			}
			require.Equal(t, 8, arena.Cap())
			require.Equal(t, 5, arena.Len())

			for range 4 {
				_, err := arena.Alloc(1)
				require.NoError(t, err)
			}
			require.Equal(t, 16, arena.Cap())
		})

		t.Run("leaves the arena intact when it cannot grow", func(t *testing.T) {
			allocator := newCountingAllocator()
			arena := internal.NewArena(internal.WithAllocator(allocator), internal.WithCapacity(2), internal.WithLimit(3))

			for range 3 {
				_, err := arena.Alloc(8)
				require.NoError(t, err)
			}

			_, err := arena.Alloc(8)
			require.ErrorIs(t, err, internal.ErrArenaExhausted)
			require.ErrorIs(t, arena.Register(make([]byte, 1)), internal.ErrArenaExhausted)
			require.Equal(t, 3, arena.Len())

			require.NoError(t, arena.Destroy())
			require.Len(t, allocator.freed, 3)
		})

		t.Run("surfaces allocator failures", func(t *testing.T) {
			allocator := newCountingAllocator()
			allocator.fail = true
			arena := internal.NewArena(internal.WithAllocator(allocator))

			_, err := arena.Alloc(8)
			require.Error(t, err)
			require.Contains(t, err.Error(), "out of memory")
			require.Equal(t, 0, arena.Len())
		})
	})

	t.Run("strings", func(t *testing.T) {
		t.Run("copies into arena memory", func(t *testing.T) {
			allocator := newCountingAllocator()
			arena := internal.NewArena(internal.WithAllocator(allocator))

			source := []byte("alice/project")
			s, err := arena.String(string(source))
			require.NoError(t, err)
			source[0] = 'X'
			require.Equal(t, "alice/project", s)

			joined, err := arena.Concat("HEAD", ":", "src/main.c")
			require.NoError(t, err)
			require.Equal(t, "HEAD:src/main.c", joined)

			require.Equal(t, 2, arena.Len())
			require.NoError(t, arena.Destroy())
			require.Len(t, allocator.freed, 2)
		})

		t.Run("does not allocate empty strings", func(t *testing.T) {
			arena := internal.NewArena()

			s, err := arena.String("")
			require.NoError(t, err)
			require.Empty(t, s)

			s, err = arena.Concat("", "")
			require.NoError(t, err)
			require.Empty(t, s)

			require.Equal(t, 0, arena.Len())
		})

		t.Run("works without an arena", func(t *testing.T) {
			var arena *internal.Arena

			s, err := arena.Concat("a", "/", "b")
			require.NoError(t, err)
			require.Equal(t, "a/b", s)

			buf, err := arena.Alloc(3)
			require.NoError(t, err)
			require.Len(t, buf, 3)

			require.NoError(t, arena.Register(make([]byte, 4)))
			require.Equal(t, 0, arena.Len())
			require.Equal(t, 0, arena.Cap())
			require.NoError(t, arena.Destroy())

			var order []string
			err = arena.Own("stream", recordingCloser{name: "stream", order: &order})
			require.ErrorIs(t, err, internal.ErrNoArena)
			require.Contains(t, err.Error(), "failed to own stream")
			require.Empty(t, order)
		})
	})
}

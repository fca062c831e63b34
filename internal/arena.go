package internal

import (
	"errors"
	"fmt"
	"io"
	"unsafe"
)

var (
	// ErrArenaExhausted is returned when an arena cannot grow to hold another
	// registration.
	ErrArenaExhausted = errors.New("arena exhausted")

	// ErrArenaDestroyed is returned when an arena is used after Destroy.
	ErrArenaDestroyed = errors.New("arena already destroyed")

	// ErrNoArena is returned when a nil arena is asked to own a resource.
	ErrNoArena = errors.New("no arena to own resource")
)

// DefaultArenaCapacity is the number of registrations an arena holds before
// its table first has to grow.
const DefaultArenaCapacity = 1024

// Allocator provides the buffers handed out by an Arena and takes them back
// when the arena is destroyed.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Free(buf []byte)
}

type heapAllocator struct{}

func (heapAllocator) Allocate(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid allocation size %d", size)
	}
	return make([]byte, size), nil
}

func (heapAllocator) Free([]byte) {}

type allocation struct {
	name   string
	buf    []byte
	closer io.Closer
}

// Arena tracks everything allocated or opened while producing one response
// and releases all of it with a single Destroy call.
//
// An arena is owned by exactly one request and is not safe for concurrent
// use. Strings and buffers obtained from it must not be used after Destroy.
//
// A nil *Arena is valid and tracks nothing: buffers and strings come from
// the heap, Register is a no-op and Destroy has nothing to release. Own
// fails on a nil arena because nothing would ever close the resource.
type Arena struct {
	allocator Allocator
	writer    Writer
	entries   []allocation
	capacity  int
	limit     int
	destroyed bool
}

// ArenaOption configures an Arena.
type ArenaOption func(*Arena)

// WithAllocator replaces the heap allocator.
func WithAllocator(allocator Allocator) ArenaOption {
	return func(a *Arena) {
		a.allocator = allocator
	}
}

// WithCapacity sets the initial size of the registration table.
func WithCapacity(capacity int) ArenaOption {
	return func(a *Arena) {
		a.capacity = capacity
	}
}

// WithLimit caps the number of registrations. Zero means unlimited.
func WithLimit(limit int) ArenaOption {
	return func(a *Arena) {
		a.limit = limit
	}
}

// WithArenaWriter reports release failures to w.
func WithArenaWriter(w Writer) ArenaOption {
	return func(a *Arena) {
		a.writer = w
	}
}

// NewArena creates an empty arena.
func NewArena(opts ...ArenaOption) *Arena {
	a := &Arena{
		allocator: heapAllocator{},
		capacity:  DefaultArenaCapacity,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.limit > 0 && a.capacity > a.limit {
		a.capacity = a.limit
	}
	if a.capacity < 1 {
		a.capacity = 1
	}
	a.entries = make([]allocation, 0, a.capacity)

	return a
}

// reserve makes room for one more registration, doubling the table when it
// is full. On failure the table is left untouched.
func (a *Arena) reserve() error {
	if a.destroyed {
		return ErrArenaDestroyed
	}
	if len(a.entries) < a.capacity {
		return nil
	}

	capacity := a.capacity * 2
	if a.limit > 0 && capacity > a.limit {
		capacity = a.limit
	}
	if capacity <= len(a.entries) {
		return fmt.Errorf("failed to grow arena past %d registrations: %w", len(a.entries), ErrArenaExhausted)
	}

	entries := make([]allocation, len(a.entries), capacity)
	copy(entries, a.entries)
	a.entries = entries
	a.capacity = capacity

	return nil
}

// Alloc returns a zeroed buffer of size bytes owned by the arena. A nil arena
// returns an untracked heap buffer.
func (a *Arena) Alloc(size int) ([]byte, error) {
	if a == nil {
		return heapAllocator{}.Allocate(size)
	}

	if err := a.reserve(); err != nil {
		return nil, err
	}

	buf, err := a.allocator.Allocate(size)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate %d bytes: %w", size, err)
	}
	a.entries = append(a.entries, allocation{buf: buf})

	return buf, nil
}

// Register hands ownership of an independently allocated buffer to the
// arena. The buffer is passed to the allocator's Free on Destroy. A buffer
// must not be registered with more than one arena.
func (a *Arena) Register(buf []byte) error {
	if a == nil {
		return nil
	}
	if err := a.reserve(); err != nil {
		return err
	}
	a.entries = append(a.entries, allocation{buf: buf})
	return nil
}

// Own hands ownership of a resource to the arena. It is closed on Destroy.
func (a *Arena) Own(name string, closer io.Closer) error {
	if a == nil {
		return fmt.Errorf("failed to own %s: %w", name, ErrNoArena)
	}
	if err := a.reserve(); err != nil {
		return err
	}
	a.entries = append(a.entries, allocation{name: name, closer: closer})
	return nil
}

// String copies s into arena-owned memory.
func (a *Arena) String(s string) (string, error) {
	if a == nil || s == "" {
		return s, nil
	}

	buf, err := a.Alloc(len(s))
	if err != nil {
		return "", err
	}
	copy(buf, s)

	return unsafe.String(&buf[0], len(buf)), nil
}

// Concat builds the concatenation of parts in arena-owned memory.
func (a *Arena) Concat(parts ...string) (string, error) {
	size := 0
	for _, part := range parts {
		size += len(part)
	}
	if a == nil || size == 0 {
		var s string
		for _, part := range parts {
			s += part
		}
		return s, nil
	}

	buf, err := a.Alloc(size)
	if err != nil {
		return "", err
	}
	n := 0
	for _, part := range parts {
		n += copy(buf[n:], part)
	}

	return unsafe.String(&buf[0], len(buf)), nil
}

// Len returns the number of live registrations.
func (a *Arena) Len() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}

// Cap returns the current size of the registration table.
func (a *Arena) Cap() int {
	if a == nil {
		return 0
	}
	return a.capacity
}

// Destroy releases every registration exactly once, last registered first.
// Close failures are logged and joined into the returned error; they never
// stop the remaining releases. Calling Destroy twice returns
// ErrArenaDestroyed.
func (a *Arena) Destroy() error {
	if a == nil {
		return nil
	}
	if a.destroyed {
		return ErrArenaDestroyed
	}
	a.destroyed = true

	var errs []error
	for i := len(a.entries) - 1; i >= 0; i-- {
		entry := a.entries[i]
		if entry.closer == nil {
			a.allocator.Free(entry.buf)
			continue
		}

		if err := entry.closer.Close(); err != nil {
			if a.writer != nil {
				a.writer.Warningf("release failed for %s: %v", entry.name, err)
			}
			errs = append(errs, fmt.Errorf("failed to release %s: %w", entry.name, err))
		}
	}

	a.entries = nil
	a.capacity = 0

	return errors.Join(errs...)
}

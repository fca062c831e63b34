package urlpath

import (
	"errors"
	"strings"

	"github.com/exgt/exgt/internal"
)

// ErrNotFound is returned when a path has fewer segments than requested.
var ErrNotFound = errors.New("path segment not found")

// Crumb is one step of a breadcrumb trail.
type Crumb struct {
	Name string
	Path string
}

// rest returns the part of p following its first n segments.
func rest(p string, n int) (string, error) {
	if n < 0 {
		return "", ErrNotFound
	}

	s := strings.TrimPrefix(p, "/")
	for range n {
		if s == "" {
			return "", ErrNotFound
		}

		i := strings.IndexByte(s, '/')
		if i < 0 {
			s = ""
			continue
		}
		s = s[i+1:]
	}

	return s, nil
}

// Segment returns the nth segment of p.
func Segment(a *internal.Arena, p string, n int) (string, error) {
	s, err := rest(p, n)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", ErrNotFound
	}

	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}

	return a.String(s)
}

// Skip returns everything after the first n segments of p, without the
// separating slash. It returns an empty string when p ends exactly there.
func Skip(a *internal.Arena, p string, n int) (string, error) {
	s, err := rest(p, n)
	if err != nil {
		return "", err
	}

	return a.String(s)
}

// Cut returns the first n segments of p. When nothing follows them p is
// returned unchanged.
func Cut(a *internal.Arena, p string, n int) (string, error) {
	s, err := rest(p, n)
	if err != nil {
		return "", err
	}
	if s == "" {
		return a.String(p)
	}

	return a.String(p[:max(0, len(p)-len(s)-1)])
}

// Join concatenates root and rel with exactly one slash between them. All
// path construction goes through Join.
func Join(a *internal.Arena, root, rel string) (string, error) {
	return a.Concat(strings.TrimRight(root, "/"), "/", strings.TrimLeft(rel, "/"))
}

// Last returns the final segment of p. The root path is its own last
// segment.
func Last(a *internal.Arena, p string) (string, error) {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return a.String(p)
	}

	return a.String(trimmed[strings.LastIndexByte(trimmed, '/')+1:])
}

// Crumbs returns one crumb per segment of rel, each pointing at the path
// from root down to that segment. Empty segments are skipped.
func Crumbs(a *internal.Arena, root, rel string) ([]Crumb, error) {
	var crumbs []Crumb

	path := root
	for _, name := range strings.Split(rel, "/") {
		if name == "" {
			continue
		}

		var err error
		path, err = Join(a, path, name)
		if err != nil {
			return nil, err
		}

		crumbs = append(crumbs, Crumb{Name: name, Path: path})
	}

	return crumbs, nil
}

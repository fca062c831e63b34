package internal

import "strings"

// Environment represents the CGI environment as KEY=VALUE pairs.
type Environment []string

// Lookup returns the environment as a map, ignoring malformed entries.
func (e Environment) Lookup() map[string]string {
	lookup := make(map[string]string, len(e))
	for _, variable := range e {
		key, value, ok := strings.Cut(variable, "=")
		if ok {
			lookup[key] = value
		}
	}
	return lookup
}

// ContentType represents a response media type.
type ContentType string

const (
	TextHTML ContentType = "text/html"
	TextCSS  ContentType = "text/css"
)

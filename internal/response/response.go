package response

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/exgt/exgt/internal"
)

var (
	// ErrFlushed is returned when a response is flushed a second time.
	ErrFlushed = errors.New("response already flushed")

	// ErrNotAcceptable is returned when the client accepts none of the
	// representations exgt produces.
	ErrNotAcceptable = errors.New("no acceptable content type")
)

// mediaTypes returns the media ranges of an Accept or Accept-Encoding header
// that the client did not refuse with q=0.
func mediaTypes(header string) []string {
	var types []string
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(part, ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		refused := false
		for _, param := range strings.Split(params, ";") {
			key, value, _ := strings.Cut(strings.TrimSpace(param), "=")
			if key == "q" && strings.Trim(strings.TrimSpace(value), "0.") == "" {
				refused = true
			}
		}
		if !refused {
			types = append(types, name)
		}
	}
	return types
}

// Negotiate picks the content type for an Accept header. Stylesheets are
// only served to clients that ask for CSS and not for HTML.
func Negotiate(accept string) (internal.ContentType, error) {
	if strings.TrimSpace(accept) == "" {
		return internal.TextHTML, nil
	}

	var html, css, wildcard bool
	for _, t := range mediaTypes(accept) {
		switch t {
		case string(internal.TextHTML):
			html = true
		case string(internal.TextCSS):
			css = true
		case "*/*", "text/*":
			wildcard = true
		}
	}

	switch {
	case css && !html:
		return internal.TextCSS, nil
	case html || wildcard:
		return internal.TextHTML, nil
	default:
		return "", fmt.Errorf("failed to negotiate %q: %w", accept, ErrNotAcceptable)
	}
}

// Response is a status, a content type and a body that is only written out
// by Flush. Until then the body can be discarded with Reset.
type Response struct {
	Status int
	Type   internal.ContentType
	Body   bytes.Buffer

	flushed bool
}

// New creates an empty HTML response with status 200.
func New() *Response {
	return &Response{
		Status: http.StatusOK,
		Type:   internal.TextHTML,
	}
}

// Reset discards the body and sets a new status. The content type goes
// back to HTML.
func (r *Response) Reset(status int) {
	r.Body.Reset()
	r.Status = status
	r.Type = internal.TextHTML
}

// Flushed reports whether Flush has been called.
func (r *Response) Flushed() bool {
	return r.flushed
}

// Flush writes the CGI headers and the body to w. The body is gzip encoded
// when acceptEncoding allows it. Only the first call writes anything.
func (r *Response) Flush(w io.Writer, acceptEncoding string) error {
	if r.flushed {
		return ErrFlushed
	}
	r.flushed = true

	var out bytes.Buffer
	fmt.Fprintf(&out, "Status: %d %s\n", r.Status, http.StatusText(r.Status))
	fmt.Fprintf(&out, "Content-Type: %s\n", r.Type)

	if acceptsGzip(acceptEncoding) {
		out.WriteString("Content-Encoding: gzip\n\n")

		gz := gzip.NewWriter(&out)
		if _, err := gz.Write(r.Body.Bytes()); err != nil {
			return fmt.Errorf("failed to compress response: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to compress response: %w", err)
		}
	} else {
		out.WriteString("\n")
		out.Write(r.Body.Bytes())
	}

	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	return nil
}

func acceptsGzip(acceptEncoding string) bool {
	for _, encoding := range mediaTypes(acceptEncoding) {
		if encoding == "gzip" {
			return true
		}
	}
	return false
}

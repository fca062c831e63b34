package response_test

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/exgt/exgt/internal"
	"github.com/exgt/exgt/internal/response"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestNegotiate(t *testing.T) {
	t.Run("serves HTML to browsers", func(t *testing.T) {
		for _, accept := range []string{
			"",
			"text/html",
			"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"*/*",
			"text/*",
			"text/html, text/css",
		} {
			contentType, err := response.Negotiate(accept)
			require.NoError(t, err, accept)
			require.Equal(t, internal.TextHTML, contentType, accept)
		}
	})

	t.Run("serves the stylesheet to CSS requests", func(t *testing.T) {
		for _, accept := range []string{"text/css", "text/css,*/*;q=0.1", "TEXT/CSS"} {
			contentType, err := response.Negotiate(accept)
			require.NoError(t, err, accept)
			require.Equal(t, internal.TextCSS, contentType, accept)
		}
	})

	t.Run("refuses anything else", func(t *testing.T) {
		for _, accept := range []string{"application/json", "image/png", "text/html;q=0"} {
			_, err := response.Negotiate(accept)
			require.ErrorIs(t, err, response.ErrNotAcceptable, accept)
		}
	})
}

func TestResponse(t *testing.T) {
	t.Run("writes headers then the body", func(t *testing.T) {
		r := response.New()
		r.Body.WriteString("<p>hello</p>\n")

		var out bytes.Buffer
		require.NoError(t, r.Flush(&out, ""))
		require.Equal(t, "Status: 200 OK\nContent-Type: text/html\n\n<p>hello</p>\n", out.String())
		require.True(t, r.Flushed())
	})

	t.Run("flushes only once", func(t *testing.T) {
		r := response.New()
		r.Body.WriteString("body")

		var out bytes.Buffer
		require.NoError(t, r.Flush(&out, ""))
		require.ErrorIs(t, r.Flush(&out, ""), response.ErrFlushed)
		require.Equal(t, 1, strings.Count(out.String(), "Status:"))
	})

	t.Run("discards the body on reset", func(t *testing.T) {
		r := response.New()
		r.Type = internal.TextCSS
		r.Body.WriteString("<table><tr><td>partial")

		r.Reset(http.StatusNotFound)
		r.Body.WriteString("<p>not found</p>\n")

		var out bytes.Buffer
		require.NoError(t, r.Flush(&out, ""))
		require.Equal(t, "Status: 404 Not Found\nContent-Type: text/html\n\n<p>not found</p>\n", out.String())
	})

	t.Run("compresses when the client accepts gzip", func(t *testing.T) {
		r := response.New()
		r.Body.WriteString(strings.Repeat("<p>compressible</p>\n", 100))

		var out bytes.Buffer
		require.NoError(t, r.Flush(&out, "deflate, gzip;q=1.0"))

		reader := bufio.NewReader(&out)
		var headers []string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if line == "\n" {
				break
			}
			headers = append(headers, strings.TrimSuffix(line, "\n"))
		}
		require.Equal(t, []string{
			"Status: 200 OK",
			"Content-Type: text/html",
			"Content-Encoding: gzip",
		}, headers)

		gz, err := gzip.NewReader(reader)
		require.NoError(t, err)
		body, err := io.ReadAll(gz)
		require.NoError(t, err)
		require.Equal(t, r.Body.String(), string(body))
	})

	t.Run("does not compress when gzip is refused", func(t *testing.T) {
		r := response.New()
		r.Body.WriteString("plain")

		var out bytes.Buffer
		require.NoError(t, r.Flush(&out, "gzip;q=0, identity"))
		require.NotContains(t, out.String(), "Content-Encoding")
		require.True(t, strings.HasSuffix(out.String(), "\n\nplain"))
	})

	t.Run("reports write failures", func(t *testing.T) {
		r := response.New()

		err := r.Flush(failingWriter{}, "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "broken pipe")
		require.ErrorIs(t, r.Flush(failingWriter{}, ""), response.ErrFlushed)
	})
}

package git

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/cgi"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/exgt/exgt/internal"
	"github.com/exgt/exgt/internal/urlpath"
)

// Server is a development host for exgt. Every page request runs exgt as a
// fresh CGI process; clone traffic goes to git-http-backend, read-only.
type Server struct {
	server   *http.Server
	listener net.Listener
	port     int
	writer   internal.Writer
}

// logWriter forwards CGI host diagnostics to a Writer.
type logWriter struct {
	writer internal.Writer
}

func (l logWriter) Write(p []byte) (int, error) {
	l.writer.Warningf("%s", strings.TrimSpace(string(p)))
	return len(p), nil
}

// isSmartHTTP reports whether r is git smart protocol traffic for a
// repository. Only the endpoints directly below the repository root count,
// so pages for files named HEAD or directories named objects stay pages.
func isSmartHTTP(r *http.Request) bool {
	rest, err := urlpath.Skip(nil, r.URL.Path, segmentPath)
	if err != nil {
		return false
	}

	switch rest {
	case "info/refs":
		service := r.URL.Query().Get("service")
		return r.Method == http.MethodGet && (service == "git-upload-pack" || service == "git-receive-pack")
	case "git-upload-pack", "git-receive-pack":
		return r.Method == http.MethodPost
	default:
		return false
	}
}

// NewServer creates and starts a server on address that serves the
// repositories below projectRoot. Pages are produced by running executable
// with env plus the CGI variables of each request. The server starts
// immediately in a background goroutine.
func NewServer(address, executable, projectRoot string, env []string, w internal.Writer) (Server, error) {
	var err error
	projectRoot, err = filepath.Abs(projectRoot)
	if err != nil {
		return Server{}, fmt.Errorf("failed to resolve absolute path for %q: %w\nCheck that the path exists and is accessible", projectRoot, err)
	}

	if info, err := os.Stat(projectRoot); err != nil || !info.IsDir() {
		return Server{}, fmt.Errorf("not a project root: %q\nPoint --root at the directory holding <user>/<repo> repositories", projectRoot)
	}

	git, err := exec.LookPath("git")
	if err != nil {
		return Server{}, fmt.Errorf("git binary not found in PATH: %w\nInstall git or ensure it's in your PATH environment variable", err)
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return Server{}, fmt.Errorf("failed to create TCP listener on %s: %w\nAnother process may be using the port", address, err)
	}

	logger := log.New(logWriter{writer: w}, "", 0)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		w.Debugf("%s %s", r.Method, r.URL.Path)

		if isSmartHTTP(r) {
			// The first segment is the mount, which git-http-backend
			// knows nothing about.
			rel, err := urlpath.Skip(nil, r.URL.Path, 1)
			if err != nil {
				http.NotFound(rw, r)
				return
			}

			h := &cgi.Handler{
				Path: git,
				Args: []string{"http-backend"},
				Dir:  projectRoot,
				Env: []string{
					"GIT_PROJECT_ROOT=" + projectRoot,
					"PATH_INFO=/" + rel,
					"GIT_HTTP_EXPORT_ALL=true",
				},
				Logger: logger,
				Stderr: os.Stderr,
			}
			h.ServeHTTP(rw, r)
			return
		}

		h := &cgi.Handler{
			Path:   executable,
			Root:   "/",
			Dir:    projectRoot,
			Env:    append(append([]string{}, env...), "GIT_PROJECT_ROOT="+projectRoot),
			Logger: logger,
			Stderr: os.Stderr,
		}
		h.ServeHTTP(rw, r)
	})

	server := &http.Server{
		Handler: mux,
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			w.Warningf("exgt server error: %v", err)
		}
	}()

	_, portString, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		return Server{}, fmt.Errorf("failed to split listener host/port: %w", err)
	}

	port, err := strconv.ParseInt(portString, 10, 64)
	if err != nil {
		return Server{}, fmt.Errorf("failed to parse listener port: %w", err)
	}

	return Server{
		listener: listener,
		server:   server,
		port:     int(port),
		writer:   w,
	}, nil
}

// Port returns the TCP port number that the server is listening on.
func (s Server) Port() int {
	return s.port
}

// Close stops the server and closes the TCP listener.
func (s Server) Close() error {
	err := s.server.Close()
	if err != nil {
		return err
	}

	err = s.listener.Close()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}

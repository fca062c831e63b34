package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/exgt/exgt/internal"
	"github.com/exgt/exgt/internal/git"
	"github.com/exgt/exgt/internal/response"
)

// Pages renders the views the router dispatches to.
type Pages interface {
	Index(ctx context.Context, a *internal.Arena, w io.Writer) error
	Directory(ctx context.Context, a *internal.Arena, repo git.Repository, w io.Writer) error
	File(ctx context.Context, a *internal.Arena, repo git.Repository, w io.Writer) error
	Stylesheet(w io.Writer) error
	Error(w io.Writer, message string) error
}

// Checker verifies that rendering stages can run before any is built.
type Checker interface {
	Check(ctx context.Context) error
}

// Router serves requests with a set of pages.
type Router struct {
	pages        Pages
	checker      Checker
	writer       internal.Writer
	arenaOptions []internal.ArenaOption
}

// Option configures a Router.
type Option func(*Router)

// WithChecker runs checker before rendering repository views.
func WithChecker(checker Checker) Option {
	return func(r *Router) {
		r.checker = checker
	}
}

// WithArenaOptions configures the arena of every request.
func WithArenaOptions(opts ...internal.ArenaOption) Option {
	return func(r *Router) {
		r.arenaOptions = append(r.arenaOptions, opts...)
	}
}

// New creates a Router.
func New(pages Pages, w internal.Writer, opts ...Option) *Router {
	r := &Router{pages: pages, writer: w}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result describes how a request was served.
type Result struct {
	Status int

	// View is the view that rendered the response, or StateFailed.
	View State

	// Trace lists every state the request went through.
	Trace []State
}

// request is the state of one request. It lives exactly as long as Serve.
type request struct {
	config   internal.Config
	arena    *internal.Arena
	response *response.Response
	session  internal.Session
	writer   internal.Writer

	trace      []State
	view       State
	errorDepth int
	webRoot    string
}

func (req *request) enter(s State) {
	req.trace = append(req.trace, s)
	if s.isView() {
		req.view = s
	}
	req.writer.Debugf("entering %s", s)
}

// Serve handles the request described by config and writes the response to
// out. Everything allocated for the request is released before it returns.
// The returned error only reports a failed write of the response.
func (r *Router) Serve(ctx context.Context, config internal.Config, out io.Writer) (Result, error) {
	session := internal.GenerateSession()
	writer := r.writer.With("session", session.Short())

	req := &request{
		config:   config,
		arena:    internal.NewArena(append([]internal.ArenaOption{internal.WithArenaWriter(writer)}, r.arenaOptions...)...),
		response: response.New(),
		session:  session,
		writer:   writer,
	}
	defer func() {
		if err := req.arena.Destroy(); err != nil {
			req.writer.Warningf("failed to release request resources: %v", err)
		}
	}()

	req.enter(StateStart)

	if err := r.dispatch(ctx, req); err != nil {
		r.fail(req, err)
	} else {
		req.enter(StateRendered)
	}

	if err := req.response.Flush(out, config.AcceptEncoding); err != nil {
		return req.result(), fmt.Errorf("failed to flush response: %w", err)
	}
	req.enter(StateFlushed)

	req.writer.Printf("%s %d %s", config.PathInfo, req.response.Status, req.view)

	return req.result(), nil
}

func (req *request) result() Result {
	return Result{
		Status: req.response.Status,
		View:   req.view,
		Trace:  req.trace,
	}
}

func (r *Router) dispatch(ctx context.Context, req *request) error {
	req.enter(StateResolvePath)

	if !req.config.HasPathInfo {
		return newError(KindConfiguration, "missing request path", nil)
	}

	contentType, err := response.Negotiate(req.config.Accept)
	if err != nil {
		return newError(KindNegotiation, "not acceptable", err)
	}

	if contentType == internal.TextCSS {
		req.enter(StateStylesheet)
		req.response.Type = internal.TextCSS
		if err := r.pages.Stylesheet(&req.response.Body); err != nil {
			return classify("failed to generate stylesheet", err)
		}
		return nil
	}

	repo, err := git.Resolve(req.arena, req.config.PathInfo, req.config.ProjectRoot, req.config.Commit)
	switch {
	case errors.Is(err, git.ErrNotRepository):
		req.enter(StateUnrealTarget)
		req.enter(StateIndexView)
		if err := r.pages.Index(ctx, req.arena, &req.response.Body); err != nil {
			return classify("failed to generate index", err)
		}
		return nil

	case errors.Is(err, git.ErrNoProjectRoot):
		return newError(KindConfiguration, "missing project root", err)

	case errors.Is(err, git.ErrObjectNotFound):
		return newError(KindResolution, "object not found", err)

	case err != nil:
		return classify("failed to resolve request path", err)
	}

	req.enter(StateRealTarget)
	req.webRoot = repo.WebRoot

	req.enter(StateProbe)
	objectType, err := git.Probe(ctx, repo)
	switch {
	case errors.Is(err, git.ErrObjectNotFound):
		return newError(KindResolution, "object not found", err)
	case errors.Is(err, git.ErrUnrecognizedObject):
		return newError(KindResolution, "unrecognized object type", err)
	case err != nil:
		return classify("failed to probe object", err)
	}

	if r.checker != nil {
		if err := r.checker.Check(ctx); err != nil {
			return newError(KindPipeline, "rendering sandbox unavailable", err)
		}
	}

	switch objectType {
	case git.ObjectTree:
		req.enter(StateDirectoryView)
		if err := r.pages.Directory(ctx, req.arena, repo, &req.response.Body); err != nil {
			return classify("failed to generate directory view", err)
		}
	case git.ObjectBlob:
		req.enter(StateFileView)
		if err := r.pages.File(ctx, req.arena, repo, &req.response.Body); err != nil {
			return classify("failed to generate file view", err)
		}
	}

	return nil
}

// fallbackBody is served when the error page itself cannot be rendered.
func fallbackBody(status int) string {
	return "<p>" + http.StatusText(status) + "</p>\n"
}

// fail replaces whatever was rendered with the error page for err. A
// failure while rendering the error page is reported once; deeper failures
// are only logged.
func (r *Router) fail(req *request, err error) {
	routeErr := classify("internal error", err)

	req.enter(StateFailed)
	req.view = StateFailed
	req.errorDepth++

	if req.errorDepth > 1 {
		req.writer.Errorf("suppressed error while reporting an error: %v", routeErr)
		req.response.Reset(routeErr.Status)
		req.response.Body.WriteString(fallbackBody(routeErr.Status))
		return
	}

	if routeErr.Status >= http.StatusInternalServerError {
		req.writer.Errorf("%s (web root %q, request %s): %v", req.config.PathInfo, req.webRoot, req.session, routeErr)
	} else {
		req.writer.Warningf("%s (web root %q, request %s): %v", req.config.PathInfo, req.webRoot, req.session, routeErr)
	}

	req.response.Reset(routeErr.Status)
	if err := r.pages.Error(&req.response.Body, routeErr.Message); err != nil {
		r.fail(req, &Error{
			Kind:    KindPipeline,
			Status:  routeErr.Status,
			Message: "failed to generate error page",
			Err:     err,
		})
	}
}

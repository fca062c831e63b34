package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/exgt/exgt/internal"
	"github.com/exgt/exgt/internal/chain"
	"github.com/exgt/exgt/internal/urlpath"
)

var (
	// ErrNotRepository is returned for request paths that do not reach
	// into a repository.
	ErrNotRepository = errors.New("path does not address a repository")

	// ErrNoProjectRoot is returned when a repository is addressed but
	// GIT_PROJECT_ROOT is not set.
	ErrNoProjectRoot = errors.New("missing project root")

	// ErrObjectNotFound is returned when the addressed object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnrecognizedObject is returned when the addressed object is neither
	// a tree nor a blob.
	ErrUnrecognizedObject = errors.New("unrecognized object type")
)

// Request paths look like /<mount>/<user>/<repo>/<path>.
const (
	segmentUser = 1
	segmentRepo = 2
	segmentPath = 3
)

// Repository is a location inside a repository, as addressed by a request.
type Repository struct {
	User string
	Name string

	// RealRoot is the repository's directory on disk.
	RealRoot string

	// WebRoot is the request path of the repository's top level.
	WebRoot string

	// Path is the location inside the repository, empty for the top level.
	Path string

	Commit string

	// Object is the revision expression "<commit>:<path>".
	Object string
}

// ObjectType is the kind of object a Repository location names.
type ObjectType int

const (
	ObjectTree ObjectType = iota + 1
	ObjectBlob
)

func (t ObjectType) String() string {
	switch t {
	case ObjectTree:
		return "tree"
	case ObjectBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// Resolve derives repository coordinates from a request path. Paths with
// fewer than three segments return ErrNotRepository.
func Resolve(a *internal.Arena, pathInfo, projectRoot, commit string) (Repository, error) {
	user, err := urlpath.Segment(a, pathInfo, segmentUser)
	if errors.Is(err, urlpath.ErrNotFound) {
		return Repository{}, ErrNotRepository
	}
	if err != nil {
		return Repository{}, err
	}

	name, err := urlpath.Segment(a, pathInfo, segmentRepo)
	if errors.Is(err, urlpath.ErrNotFound) {
		return Repository{}, ErrNotRepository
	}
	if err != nil {
		return Repository{}, err
	}

	for _, segment := range strings.Split(pathInfo, "/") {
		if segment == "." || segment == ".." {
			return Repository{}, fmt.Errorf("failed to resolve %q: %w", pathInfo, ErrObjectNotFound)
		}
	}
	if user == "" || name == "" {
		return Repository{}, fmt.Errorf("failed to resolve %q: %w", pathInfo, ErrObjectNotFound)
	}
	if commit == "" || strings.HasPrefix(commit, "-") {
		return Repository{}, fmt.Errorf("failed to resolve commit %q: %w", commit, ErrObjectNotFound)
	}

	if projectRoot == "" {
		return Repository{}, ErrNoProjectRoot
	}

	webRoot, err := urlpath.Cut(a, pathInfo, segmentPath)
	if err != nil {
		return Repository{}, err
	}

	path, err := urlpath.Skip(a, pathInfo, segmentPath)
	if err != nil {
		return Repository{}, err
	}
	path = strings.TrimRight(path, "/")

	project, err := a.Concat(user, "/", name)
	if err != nil {
		return Repository{}, err
	}

	realRoot, err := urlpath.Join(a, projectRoot, project)
	if err != nil {
		return Repository{}, err
	}

	object, err := a.Concat(commit, ":", path)
	if err != nil {
		return Repository{}, err
	}

	return Repository{
		User:     user,
		Name:     name,
		RealRoot: realRoot,
		WebRoot:  strings.TrimRight(webRoot, "/"),
		Path:     path,
		Commit:   commit,
		Object:   object,
	}, nil
}

// Project returns "user/repo".
func (r Repository) Project() string {
	return r.User + "/" + r.Name
}

// command returns a git invocation inside the repository.
func (r Repository) command(args ...string) chain.Stage {
	return append(chain.Stage{"git", "-C", r.RealRoot}, args...)
}

// CatFileType returns the stage printing the type of the addressed object.
func (r Repository) CatFileType() chain.Stage {
	return r.command("cat-file", "-t", r.Object)
}

// LsTree returns the stage listing the addressed tree with object sizes.
func (r Repository) LsTree() chain.Stage {
	return r.command("-c", "core.quotePath=false", "ls-tree", "-l", r.Object)
}

// Show returns the stage printing the contents of object, which is either a
// revision expression or an object name.
func (r Repository) Show(object string) chain.Stage {
	return r.command("show", object)
}

// LastCommit returns the stage printing the committer date of the latest
// commit, in strict ISO 8601.
func (r Repository) LastCommit() chain.Stage {
	return r.command("log", "-1", "--format=%cI", r.Commit)
}

// Probe asks git for the type of the addressed object. A non-zero exit
// status of git means the object does not exist.
func Probe(ctx context.Context, r Repository) (ObjectType, error) {
	stream, err := chain.Start(ctx, []chain.Stage{r.CatFileType()}, chain.WithStderr(io.Discard))
	if err != nil {
		return 0, fmt.Errorf("failed to probe %q: %w", r.Object, err)
	}

	output, readErr := io.ReadAll(stream)
	err = stream.Close()

	// Only an exit status from git itself means the object is missing. A
	// git killed by a signal or by cancellation is a failed stage.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() && ctx.Err() == nil {
		return 0, fmt.Errorf("failed to probe %q: %w", r.Object, ErrObjectNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to probe %q: %w", r.Object, err)
	}
	if readErr != nil {
		return 0, fmt.Errorf("failed to read type of %q: %w", r.Object, readErr)
	}

	switch strings.TrimSpace(string(output)) {
	case "tree":
		return ObjectTree, nil
	case "blob":
		return ObjectBlob, nil
	default:
		return 0, fmt.Errorf("failed to probe %q (%s): %w", r.Object, strings.TrimSpace(string(output)), ErrUnrecognizedObject)
	}
}

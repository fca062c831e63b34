package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/maruel/subcommands"

	"github.com/exgt/exgt/internal"
	"github.com/exgt/exgt/internal/chain"
	"github.com/exgt/exgt/internal/git"
	"github.com/exgt/exgt/internal/store"
)

// newApplication returns the administrative commands. They run only when
// exgt is invoked outside of a web server.
func newApplication(ctx context.Context, stdout io.Writer, w internal.Writer) *subcommands.DefaultApplication {
	return &subcommands.DefaultApplication{
		Name:  "exgt",
		Title: "git repository browser",
		Commands: []*subcommands.Command{
			cmdServe(ctx, w),
			cmdAddProject(ctx, w),
			cmdListProjects(stdout),
			subcommands.CmdHelp,
		},
	}
}

func cmdServe(ctx context.Context, w internal.Writer) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "serve -root <dir> [-addr host:port]",
		ShortDesc: "serve the repositories under a project root over HTTP",
		LongDesc: `Serve the repositories under a project root over HTTP.

Every page request runs exgt as a CGI program. Clones are answered by
git http-backend. Pushes are refused.`,
		CommandRun: func() subcommands.CommandRun {
			c := &serveRun{ctx: ctx, writer: w}
			c.Flags.StringVar(&c.addr, "addr", "127.0.0.1:8080", "address to listen on")
			c.Flags.StringVar(&c.root, "root", "", "directory holding <user>/<repo> repositories")
			c.Flags.StringVar(&c.site, "config", "", "site config file passed to page requests")
			c.Flags.StringVar(&c.db, "db", "", "project catalog passed to page requests")
			return c
		},
	}
}

type serveRun struct {
	subcommands.CommandRunBase

	ctx    context.Context
	writer internal.Writer
	addr   string
	root   string
	site   string
	db     string
}

func (c *serveRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if c.root == "" {
		fmt.Fprintln(os.Stderr, "serve: -root is required")
		return 2
	}

	executable, err := os.Executable()
	if err != nil {
		c.writer.Errorf("failed to locate exgt executable: %v", err)
		return 1
	}

	var childEnv []string
	if c.site != "" {
		childEnv = append(childEnv, "EXGT_CONFIG="+c.site)
	}
	if c.db != "" {
		childEnv = append(childEnv, "EXGT_DB="+c.db)
	}

	server, err := git.NewServer(c.addr, executable, c.root, childEnv, c.writer)
	if err != nil {
		c.writer.Errorf("%v", err)
		return 1
	}
	defer server.Close()

	c.writer.Printf("serving %s on port %d", c.root, server.Port())
	<-c.ctx.Done()

	return 0
}

func cmdAddProject(ctx context.Context, w internal.Writer) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "add-project -db <file> -root <dir> -name <user/repo>",
		ShortDesc: "add a repository to the project catalog",
		LongDesc: `Add a repository to the project catalog shown on the landing page.

The project is dated by the committer date of its latest commit.`,
		CommandRun: func() subcommands.CommandRun {
			c := &addProjectRun{ctx: ctx, writer: w}
			c.Flags.StringVar(&c.db, "db", "", "project catalog file, created when missing")
			c.Flags.StringVar(&c.root, "root", "", "directory holding <user>/<repo> repositories")
			c.Flags.StringVar(&c.name, "name", "", "project as <user>/<repo>")
			c.Flags.StringVar(&c.description, "description", "", "one line description")
			c.Flags.StringVar(&c.commit, "commit", internal.DefaultCommit, "commit dating the project")
			return c
		},
	}
}

type addProjectRun struct {
	subcommands.CommandRunBase

	ctx         context.Context
	writer      internal.Writer
	db          string
	root        string
	name        string
	description string
	commit      string
}

func (c *addProjectRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if c.db == "" || c.root == "" || c.name == "" {
		fmt.Fprintln(os.Stderr, "add-project: -db, -root and -name are required")
		return 2
	}

	if err := c.add(); err != nil {
		c.writer.Errorf("%v", err)
		return 1
	}
	return 0
}

func (c *addProjectRun) add() error {
	repo, err := git.Resolve(nil, "/"+internal.DefaultMount+"/"+strings.Trim(c.name, "/"), c.root, c.commit)
	if err != nil {
		return fmt.Errorf("failed to locate project %q: %w", c.name, err)
	}
	if repo.Path != "" {
		return fmt.Errorf("failed to add project %q: %w", c.name, store.ErrInvalidProject)
	}

	output, err := chain.Output(c.ctx, repo.LastCommit())
	if err != nil {
		return fmt.Errorf("failed to read last commit of %q: %w", repo.Project(), err)
	}
	updated, err := time.Parse(time.RFC3339, strings.TrimSpace(string(output)))
	if err != nil {
		return fmt.Errorf("failed to parse commit date of %q: %w", repo.Project(), err)
	}

	catalog, err := store.Open(c.db, false)
	if err != nil {
		return err
	}
	defer catalog.Close()

	err = catalog.Put(store.Project{
		Name:        repo.Project(),
		Path:        repo.RealRoot,
		Description: c.description,
		Updated:     updated,
	})
	if err != nil {
		return err
	}

	c.writer.Printf("added %s (updated %s)", repo.Project(), updated.Format(time.RFC3339))
	return nil
}

func cmdListProjects(stdout io.Writer) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "list-projects -db <file> [-n limit]",
		ShortDesc: "list the project catalog",
		LongDesc:  "List the project catalog, most recently updated first.",
		CommandRun: func() subcommands.CommandRun {
			c := &listProjectsRun{stdout: stdout}
			c.Flags.StringVar(&c.db, "db", "", "project catalog file")
			c.Flags.IntVar(&c.limit, "n", 0, "limit the number of projects if it is positive")
			return c
		},
	}
}

type listProjectsRun struct {
	subcommands.CommandRunBase

	stdout io.Writer
	db     string
	limit  int
}

func (c *listProjectsRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if c.db == "" {
		fmt.Fprintln(os.Stderr, "list-projects: -db is required")
		return 2
	}

	catalog, err := store.Open(c.db, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer catalog.Close()

	projects, err := catalog.Projects(c.limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	for _, project := range projects {
		fmt.Fprintf(c.stdout, "%s\t%s\t%s\n", project.Name, project.Updated.UTC().Format(time.DateOnly), project.Description)
	}
	return 0
}

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/docker/cli/cli/streams"
	"github.com/maruel/subcommands"

	"github.com/exgt/exgt/internal"
	"github.com/exgt/exgt/internal/docker"
	"github.com/exgt/exgt/internal/pages"
	"github.com/exgt/exgt/internal/router"
	"github.com/exgt/exgt/internal/store"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic occurred: %v", r)
			os.Exit(1)
		}
	}()

	if err := run(os.Args, os.Environ(), os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args, env []string, stdout io.Writer) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	config := internal.ParseConfig(env)

	w := internal.NewStandardWriter()
	if config.LogLevel != "" {
		if err := w.SetLevel(config.LogLevel); err != nil {
			w.Warningf("%v", err)
		}
	}

	if config.CGI || len(args) < 2 {
		return serveCGI(ctx, config, stdout, w)
	}

	app := newApplication(ctx, stdout, w)
	if status := subcommands.Run(app, args[1:]); status != 0 {
		return fmt.Errorf("%s exited with status %d", args[1], status)
	}

	return nil
}

// unavailableSandbox fails every check with the error that kept the sandbox
// from being created.
type unavailableSandbox struct {
	err error
}

func (u unavailableSandbox) Check(context.Context) error {
	return u.err
}

// serveCGI answers the single request described by config on stdout.
func serveCGI(ctx context.Context, config internal.Config, stdout io.Writer, w *internal.StandardWriter) error {
	if f, ok := stdout.(*os.File); ok && streams.NewOut(f).IsTerminal() {
		w.Warningf("standard output is a terminal; exgt expects to be run by a web server")
	}

	site, err := internal.LoadSiteConfig(config.SiteConfigPath)
	if err != nil {
		w.Errorf("%v, using defaults", err)
		site = internal.DefaultSiteConfig()
	}

	var pageOpts []pages.Option
	var routerOpts []router.Option

	if config.DatabasePath != "" {
		catalog, err := store.Open(config.DatabasePath, true)
		if err != nil {
			w.Warningf("%v", err)
		} else {
			defer catalog.Close()
			pageOpts = append(pageOpts, pages.WithCatalog(catalog))
		}
	}

	if config.SandboxImage != "" {
		sandbox, err := docker.NewDefaultSandbox(config.SandboxImage, w)
		if err != nil {
			routerOpts = append(routerOpts, router.WithChecker(unavailableSandbox{err: err}))
		} else {
			defer sandbox.Close()
			pageOpts = append(pageOpts, pages.WithWrapper(sandbox))
			routerOpts = append(routerOpts, router.WithChecker(sandbox))
		}
	}

	r := router.New(pages.New(site, w, pageOpts...), w, routerOpts...)

	_, err = r.Serve(ctx, config, stdout)
	return err
}

package pages

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/exgt/exgt/internal"
	"github.com/exgt/exgt/internal/chain"
	"github.com/exgt/exgt/internal/git"
	"github.com/exgt/exgt/internal/html"
	"github.com/exgt/exgt/internal/store"
	"github.com/exgt/exgt/internal/urlpath"
)

// Catalog lists the projects shown on the landing page.
type Catalog interface {
	Projects(limit int) ([]store.Project, error)
}

// Wrapper rewrites rendering stages before they run.
type Wrapper interface {
	Wrap(stage chain.Stage) chain.Stage
}

// ProjectLimit is the number of projects listed on the landing page.
const ProjectLimit = 50

// Pages builds every page of one site.
type Pages struct {
	site    internal.SiteConfig
	catalog Catalog
	wrapper Wrapper
	writer  internal.Writer
	stderr  io.Writer
}

// Option configures Pages.
type Option func(*Pages)

// WithCatalog lists the catalog's projects on the landing page.
func WithCatalog(catalog Catalog) Option {
	return func(p *Pages) {
		p.catalog = catalog
	}
}

// WithWrapper runs the highlight and markdown stages through wrapper.
func WithWrapper(wrapper Wrapper) Option {
	return func(p *Pages) {
		p.wrapper = wrapper
	}
}

// WithStderr collects the standard error of every stage.
func WithStderr(w io.Writer) Option {
	return func(p *Pages) {
		p.stderr = w
	}
}

// New creates the pages of site, logging through w.
func New(site internal.SiteConfig, w internal.Writer, opts ...Option) *Pages {
	p := &Pages{site: site, writer: w}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// page is a document with the common head and header in place.
type page struct {
	doc     *html.Document
	doctype html.NodeID
	main    html.NodeID
}

func (p *Pages) mountPath(a *internal.Arena, rel string) (string, error) {
	return urlpath.Join(a, "/"+strings.Trim(p.site.Mount, "/"), rel)
}

func (p *Pages) newPage(a *internal.Arena, title, search string) (page, error) {
	stylesheet, err := p.mountPath(a, "styles.css")
	if err != nil {
		return page{}, err
	}

	doc := html.NewDocument()
	doctype := doc.Raw("<!DOCTYPE html>\n")
	root := doc.Sibling(doctype, doc.Element("html", ""))

	head := doc.Child(root, doc.Element("head", ""))
	doc.AppendChild(head, doc.Element("title", title))
	doc.AppendChild(head, doc.Attr(doc.Element("meta", ""), "charset", "utf-8"))
	link := doc.AppendChild(head, doc.Element("link", ""))
	doc.Attr(link, "rel", "stylesheet")
	doc.Attr(link, "href", stylesheet)

	body := doc.Sibling(head, doc.Element("body", ""))
	header := doc.Child(body, doc.Element("header", ""))

	home := doc.Child(header, doc.Element("a", strings.ToUpper(p.site.Title)))
	doc.Attr(home, "class", "button")
	doc.Attr(home, "href", "/"+strings.Trim(p.site.Mount, "/"))

	input := doc.Sibling(home, doc.Element("input", ""))
	doc.Attr(input, "class", "search border")
	doc.Attr(input, "type", "search")
	doc.Attr(input, "placeholder", search)

	main := doc.Sibling(header, doc.Element("main", ""))

	return page{doc: doc, doctype: doctype, main: main}, nil
}

func (pg page) print(w io.Writer) error {
	return pg.doc.Print(w, pg.doctype)
}

// selector returns the query string that keeps links on the same commit.
func selector(commit string) string {
	if commit == "" || commit == internal.DefaultCommit {
		return ""
	}
	return "?commit=" + url.QueryEscape(commit)
}

// clone adds the clone address and the breadcrumb trail of repo to main and
// returns the breadcrumb element.
func (p *Pages) clone(a *internal.Arena, pg page, repo git.Repository) (html.NodeID, error) {
	doc := pg.doc

	address, err := urlpath.Join(a, p.site.CloneURL, repo.WebRoot)
	if err != nil {
		return html.None, err
	}

	clone := doc.AppendChild(pg.main, doc.Attr(doc.Element("div", ""), "class", "clone"))
	doc.Child(clone, doc.Element("span", address))

	query := selector(repo.Commit)

	trail := doc.Sibling(clone, doc.Attr(doc.Element("div", ""), "class", "path"))

	href, err := a.Concat(repo.WebRoot, query)
	if err != nil {
		return html.None, err
	}
	last := doc.Child(trail, doc.Element("a", repo.Name))
	doc.Attr(last, "class", "path-elem hover-underline")
	doc.Attr(last, "href", href)

	crumbs, err := urlpath.Crumbs(a, repo.WebRoot, repo.Path)
	if err != nil {
		return html.None, err
	}

	for i, crumb := range crumbs {
		last = doc.Sibling(last, doc.Attr(doc.Element("span", "/"), "class", "path-sep"))

		if i == len(crumbs)-1 {
			last = doc.Sibling(last, doc.Attr(doc.Element("span", crumb.Name), "class", "path-elem"))
			continue
		}

		href, err := a.Concat(crumb.Path, query)
		if err != nil {
			return html.None, err
		}
		last = doc.Sibling(last, doc.Element("a", crumb.Name))
		doc.Attr(last, "class", "path-elem hover-underline")
		doc.Attr(last, "href", href)
	}

	return trail, nil
}

// render expands a tool template for syntax and applies the wrapper.
func (p *Pages) render(template []string, syntax string) chain.Stage {
	stage := make(chain.Stage, len(template))
	for i, arg := range template {
		stage[i] = strings.ReplaceAll(arg, "{syntax}", syntax)
	}

	if p.wrapper != nil {
		return p.wrapper.Wrap(stage)
	}
	return stage
}

// start runs stages and hands the stream to the arena.
func (p *Pages) start(ctx context.Context, a *internal.Arena, name string, stages ...chain.Stage) (*chain.Stream, error) {
	var opts []chain.Option
	if p.stderr != nil {
		opts = append(opts, chain.WithStderr(p.stderr))
	}

	stream, err := chain.Start(ctx, stages, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	if err := a.Own(name, stream); err != nil {
		stream.Close()
		return nil, err
	}

	p.writer.Debugf("started %s: %v", name, stages)
	return stream, nil
}

package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/exgt/exgt/internal"
	"github.com/exgt/exgt/internal/chain"
	"github.com/exgt/exgt/internal/git"
	"github.com/exgt/exgt/internal/html"
	"github.com/exgt/exgt/internal/urlpath"
)

// Directory writes the listing of the tree repo addresses, followed by its
// README rendered as markdown when there is one.
func (p *Pages) Directory(ctx context.Context, a *internal.Arena, repo git.Repository, w io.Writer) error {
	title := repo.Project()
	if repo.Path != "" {
		var err error
		title, err = urlpath.Join(a, title, repo.Path)
		if err != nil {
			return err
		}
	}

	pg, err := p.newPage(a, title, "Search project")
	if err != nil {
		return err
	}
	doc := pg.doc

	trail, err := p.clone(a, pg, repo)
	if err != nil {
		return err
	}

	listing := doc.Sibling(trail, doc.Attr(doc.Element("div", ""), "class", "border dirview"))

	base, err := urlpath.Join(a, repo.WebRoot, repo.Path)
	if err != nil {
		return err
	}
	query := selector(repo.Commit)

	stream, err := p.start(ctx, a, "ls-tree", repo.LsTree())
	if err != nil {
		return err
	}

	var readme string
	err = chain.ReadLines(stream, func(line string) error {
		entry, err := git.ParseTreeEntry(line)
		if err != nil {
			return err
		}
		if readme == "" && entry.IsReadme() {
			readme = entry.Hash
		}

		ref, err := urlpath.Join(a, base, entry.Name)
		if err != nil {
			return err
		}
		href, err := a.Concat(ref, query)
		if err != nil {
			return err
		}

		row := doc.AppendChild(listing, doc.Attr(doc.Element("div", ""), "class", "dir"))
		attrs := doc.Child(row, doc.Attr(doc.Element("span", entry.Permissions()), "class", "attrs"))
		size := doc.Sibling(attrs, doc.Attr(doc.Element("span", entry.Size), "class", "size"))
		link := doc.Sibling(size, doc.Element("a", entry.Name))
		doc.Attr(link, "class", "hover-underline")
		doc.Attr(link, "href", href)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read tree %q: %w", repo.Object, err)
	}
	if err := stream.Wait(); err != nil {
		return fmt.Errorf("failed to list tree %q: %w", repo.Object, err)
	}

	if readme != "" {
		if err := p.readme(ctx, a, repo, readme, pg, listing); err != nil {
			return err
		}
	}

	return pg.print(w)
}

func (p *Pages) readme(ctx context.Context, a *internal.Arena, repo git.Repository, object string, pg page, after html.NodeID) error {
	stream, err := p.start(ctx, a, "markdown", repo.Show(object), p.render(p.site.Markdown, "markdown"))
	if err != nil {
		return err
	}

	markdown, err := io.ReadAll(stream)
	if err != nil {
		return fmt.Errorf("failed to read rendered README: %w", err)
	}
	if err := stream.Wait(); err != nil {
		return fmt.Errorf("failed to render README: %w", err)
	}

	rendered, err := a.String(string(markdown))
	if err != nil {
		return err
	}

	view := pg.doc.Sibling(after, pg.doc.Attr(pg.doc.Element("div", ""), "class", "border readmeview"))
	pg.doc.Child(view, pg.doc.Raw(rendered))

	return nil
}

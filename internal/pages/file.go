package pages

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/exgt/exgt/internal"
	"github.com/exgt/exgt/internal/chain"
	"github.com/exgt/exgt/internal/git"
	"github.com/exgt/exgt/internal/urlpath"
)

// syntax returns the highlighter syntax for a file name: its extension, or
// "txt" when it has none.
func syntax(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return "txt"
	}
	return name[i+1:]
}

// File writes the blob repo addresses, highlighted, one table row per line.
// Rows are numbered from 1 and carry an l_<n> anchor.
func (p *Pages) File(ctx context.Context, a *internal.Arena, repo git.Repository, w io.Writer) error {
	name, err := urlpath.Last(a, repo.Path)
	if err != nil {
		return err
	}

	pg, err := p.newPage(a, name, "Search project")
	if err != nil {
		return err
	}
	doc := pg.doc

	trail, err := p.clone(a, pg, repo)
	if err != nil {
		return err
	}

	view := doc.Sibling(trail, doc.Attr(doc.Element("div", ""), "class", "border fileview"))
	table := doc.Child(view, doc.Attr(doc.Element("table", ""), "class", "file"))

	stream, err := p.start(ctx, a, "highlight", repo.Show(repo.Object), p.render(p.site.Highlight, syntax(name)))
	if err != nil {
		return err
	}

	number := 0
	err = chain.ReadLines(stream, func(line string) error {
		number++

		id, err := a.Concat("l_", strconv.Itoa(number))
		if err != nil {
			return err
		}
		href, err := a.Concat("#", id)
		if err != nil {
			return err
		}
		content, err := a.String(line)
		if err != nil {
			return err
		}

		row := doc.AppendChild(table, doc.Element("tr", ""))
		lineno := doc.Child(row, doc.Attr(doc.Element("td", ""), "class", "lineno"))
		anchor := doc.Child(lineno, doc.Element("a", strconv.Itoa(number)))
		doc.Attr(anchor, "id", id)
		doc.Attr(anchor, "href", href)

		code := doc.Sibling(lineno, doc.Attr(doc.Element("td", ""), "class", "line"))
		doc.Child(code, doc.Raw(content))

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read file %q: %w", repo.Object, err)
	}
	if err := stream.Wait(); err != nil {
		return fmt.Errorf("failed to highlight file %q: %w", repo.Object, err)
	}

	return pg.print(w)
}

package pages

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/exgt/exgt/internal"
	"github.com/exgt/exgt/internal/store"
)

// Index writes the landing page: the site's introduction followed by the
// catalog's projects.
func (p *Pages) Index(ctx context.Context, a *internal.Arena, w io.Writer) error {
	var projects []store.Project
	if p.catalog != nil {
		var err error
		projects, err = p.catalog.Projects(ProjectLimit)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
	}

	pg, err := p.newPage(a, p.site.Title, "Search projects")
	if err != nil {
		return err
	}
	doc := pg.doc

	content := doc.Child(pg.main, doc.Attr(doc.Element("div", ""), "class", "content text"))
	heading := doc.Child(content, doc.Element("h1", p.site.Title))
	intro := doc.Sibling(heading, doc.Element("p", p.site.Description))
	list := doc.Sibling(intro, doc.Attr(doc.Element("div", ""), "class", "project-list"))

	if len(projects) == 0 {
		doc.Child(list, doc.Attr(doc.Element("p", "No projects yet."), "class", "empty"))
	}

	for _, project := range projects {
		href, err := p.mountPath(a, project.Name)
		if err != nil {
			return err
		}

		entry := doc.AppendChild(list, doc.Attr(doc.Element("div", ""), "class", "project border"))

		header := doc.Child(entry, doc.Attr(doc.Element("div", ""), "class", "project header"))
		title := doc.Child(header, doc.Element("a", project.Name))
		doc.Attr(title, "class", "project title bold")
		doc.Attr(title, "href", href)

		if !project.Updated.IsZero() {
			updated := project.Updated.UTC()
			date := doc.Sibling(title, doc.Element("time", updated.Format(time.DateOnly)))
			doc.Attr(date, "class", "date")
			doc.Attr(date, "datetime", updated.Format(time.RFC3339))
		}

		body := doc.Sibling(header, doc.Attr(doc.Element("div", ""), "class", "project content"))
		doc.Child(body, doc.Attr(doc.Element("p", project.Description), "class", "project description"))
	}

	return pg.print(w)
}

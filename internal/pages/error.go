package pages

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/exgt/exgt/internal/html"
)

//go:embed styles.css
var stylesheet []byte

// Error writes the minimal page reporting message.
func (p *Pages) Error(w io.Writer, message string) error {
	doc := html.NewDocument()
	return doc.Print(w, doc.Element("p", message))
}

// Stylesheet writes the site stylesheet.
func (p *Pages) Stylesheet(w io.Writer) error {
	if _, err := w.Write(stylesheet); err != nil {
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}
	return nil
}

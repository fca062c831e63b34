// Package pages composes the documents exgt serves.
//
// Every page is built as an html.Document and printed in one go once it is
// complete. Pipeline streams opened while building a page are handed to the
// request arena, so they are closed even when the page is abandoned.
package pages

// Package router turns one CGI request into one response.
//
// A request moves through a fixed set of states: the path is resolved,
// classified as a repository location or a synthetic page, probed when it
// is a repository location, and rendered by the matching view. Views write
// into a buffer, so a failure anywhere discards what was rendered and
// replaces it with an error page before the single flush.
package router

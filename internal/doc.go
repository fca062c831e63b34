// Package internal contains shared types and utilities for exgt.
//
// It provides CGI environment parsing, the per-response arena, session
// identity, and the logging abstraction used across the chain, git, pages
// and router packages.
package internal

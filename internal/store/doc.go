// Package store keeps the catalog of projects shown on the landing page.
//
// The catalog is a bbolt file with a single bucket keyed by "user/repo".
// CGI invocations open it read-only, so any number of them can share it
// with the admin commands that write it.
package store

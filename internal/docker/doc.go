// Package docker runs untrusted rendering tools inside containers.
//
// A Sandbox rewrites a pipeline stage so that it runs through "docker run"
// in a throwaway container without network access. Git stages never go
// through it because they need the repository on the host.
package docker

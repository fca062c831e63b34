// Package git maps request paths onto repositories and builds the git
// stages that read them.
//
// Resolve turns a request path into repository coordinates, Probe asks
// git what kind of object the coordinates name, and the stage builders
// produce the argument vectors the pipeline runs. The Server type is a
// development host that serves exgt and read-only clones over HTTP.
package git

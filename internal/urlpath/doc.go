// Package urlpath decomposes slash separated request paths.
//
// A path is a sequence of segments after one optional leading slash, so
// segment 0 of "/exgt/alice/project" is "exgt". Every function takes the
// request arena first and returns strings allocated in it; a nil arena
// returns plain heap strings. Inputs are never modified.
package urlpath

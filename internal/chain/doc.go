// Package chain runs pipelines of external processes.
//
// Each stage's standard output feeds the next stage's standard input and
// only the last stage's output is handed to the caller, as a Stream. The
// parent keeps no descriptor of an intermediate pipe once the stage that
// needs it has been spawned, so upstream stages see end of input and
// downstream stages see a broken pipe exactly as they would in a shell.
package chain

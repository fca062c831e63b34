package router

// State is a step in the handling of a request.
type State int

const (
	StateStart State = iota
	StateResolvePath
	StateRealTarget
	StateUnrealTarget
	StateProbe
	StateDirectoryView
	StateFileView
	StateIndexView
	StateStylesheet
	StateRendered
	StateFlushed
	StateFailed
)

var stateNames = [...]string{
	StateStart:         "start",
	StateResolvePath:   "resolve-path",
	StateRealTarget:    "real-target",
	StateUnrealTarget:  "unreal-target",
	StateProbe:         "probe",
	StateDirectoryView: "directory-view",
	StateFileView:      "file-view",
	StateIndexView:     "index-view",
	StateStylesheet:    "stylesheet",
	StateRendered:      "rendered",
	StateFlushed:       "flushed",
	StateFailed:        "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// isView reports whether s renders a page.
func (s State) isView() bool {
	switch s {
	case StateDirectoryView, StateFileView, StateIndexView, StateStylesheet:
		return true
	}
	return false
}

package git

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEntry is returned for ls-tree lines that cannot be parsed.
var ErrMalformedEntry = errors.New("malformed tree entry")

// TreeEntry is one line of "git ls-tree -l".
type TreeEntry struct {
	Mode string
	Type string
	Hash string

	// Size is "-" for entries that are not blobs.
	Size string
	Name string
}

var permissions = map[string]string{
	"040000": "d---------",
	"100644": "-rw-r--r--",
	"100664": "-rw-rw-r--",
	"100755": "-rwxr-xr-x",
	"120000": "l---------",
	"160000": "m---------",
}

// Permissions renders the mode as an ls style permission string. Git only
// records a handful of modes; anything else renders as question marks.
func (e TreeEntry) Permissions() string {
	if p, ok := permissions[e.Mode]; ok {
		return p
	}
	return "??????????"
}

// IsTree reports whether the entry is a directory.
func (e TreeEntry) IsTree() bool {
	return e.Type == "tree"
}

// IsReadme reports whether the entry is a README file in any letter case.
func (e TreeEntry) IsReadme() bool {
	return e.Type == "blob" && strings.HasPrefix(strings.ToUpper(e.Name), "README")
}

// ParseTreeEntry parses "<mode> <type> <hash> <size>\t<name>".
func ParseTreeEntry(line string) (TreeEntry, error) {
	meta, name, ok := strings.Cut(line, "\t")
	if !ok || name == "" {
		return TreeEntry{}, fmt.Errorf("failed to parse %q: %w", line, ErrMalformedEntry)
	}

	fields := strings.Fields(meta)
	if len(fields) != 4 {
		return TreeEntry{}, fmt.Errorf("failed to parse %q: %w", line, ErrMalformedEntry)
	}

	return TreeEntry{
		Mode: fields[0],
		Type: fields[1],
		Hash: fields[2],
		Size: fields[3],
		Name: name,
	}, nil
}

package chain

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// ReadLines calls fn with every line read from r, without its trailing
// newline. A final line without a newline is still delivered. It stops at
// the first error returned by fn or by r; reaching the end of r is not an
// error.
func ReadLines(r io.Reader, fn func(line string) error) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if ferr := fn(strings.TrimSuffix(line, "\n")); ferr != nil {
				return ferr
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Writer provides the diagnostic output library code needs. Standard output
// belongs to the CGI response, so nothing written through a Writer ever
// reaches the client.
type Writer interface {
	// Debugf writes a formatted message only visible at debug level.
	Debugf(format string, v ...interface{})

	// Printf writes a formatted informational message.
	Printf(format string, v ...interface{})

	// Warningf writes a formatted warning.
	Warningf(format string, v ...interface{})

	// Errorf writes a formatted error.
	Errorf(format string, v ...interface{})

	// With returns a Writer that attaches the given key/value pairs to every
	// message.
	With(keyvals ...interface{}) Writer
}

// StandardWriter implements Writer on top of a leveled logger.
type StandardWriter struct {
	logger *log.Logger
}

// NewStandardWriter creates a Writer that logs to stderr, which a CGI host
// forwards to its error log.
func NewStandardWriter() *StandardWriter {
	return NewCustomWriter(os.Stderr)
}

// NewCustomWriter creates a Writer that logs to out.
func NewCustomWriter(out io.Writer) *StandardWriter {
	return &StandardWriter{
		logger: log.NewWithOptions(out, log.Options{
			Prefix:          "exgt",
			ReportTimestamp: true,
		}),
	}
}

// SetLevel sets the minimum level (debug, info, warn, error) that is written.
func (w *StandardWriter) SetLevel(level string) error {
	l, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", level, err)
	}
	w.logger.SetLevel(l)
	return nil
}

func (w *StandardWriter) Debugf(format string, v ...interface{}) {
	w.logger.Debugf(format, v...)
}

func (w *StandardWriter) Printf(format string, v ...interface{}) {
	w.logger.Infof(format, v...)
}

func (w *StandardWriter) Warningf(format string, v ...interface{}) {
	w.logger.Warnf(format, v...)
}

func (w *StandardWriter) Errorf(format string, v ...interface{}) {
	w.logger.Errorf(format, v...)
}

func (w *StandardWriter) With(keyvals ...interface{}) Writer {
	return &StandardWriter{logger: w.logger.With(keyvals...)}
}

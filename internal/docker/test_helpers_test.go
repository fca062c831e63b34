package docker_test

import (
	"bytes"
	"fmt"

	"github.com/exgt/exgt/internal"
)

type mockWriter struct {
	buf *bytes.Buffer
}

func newMockWriter() *mockWriter {
	return &mockWriter{buf: &bytes.Buffer{}}
}

func (m *mockWriter) Debugf(format string, v ...interface{}) {
	fmt.Fprintf(m.buf, "Debug: "+format+"\n", v...)
}

func (m *mockWriter) Printf(format string, v ...interface{}) {
	fmt.Fprintf(m.buf, format+"\n", v...)
}

func (m *mockWriter) Warningf(format string, v ...interface{}) {
	fmt.Fprintf(m.buf, "Warning: "+format+"\n", v...)
}

func (m *mockWriter) Errorf(format string, v ...interface{}) {
	fmt.Fprintf(m.buf, "Error: "+format+"\n", v...)
}

func (m *mockWriter) With(keyvals ...interface{}) internal.Writer {
	return m
}

func (m *mockWriter) String() string {
	return m.buf.String()
}

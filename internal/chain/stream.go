package chain

import (
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Stream is the output of a running pipeline. The caller owns it and must
// Close it.
type Stream struct {
	reader *os.File
	group  *errgroup.Group

	waitOnce  sync.Once
	waitErr   error
	closeOnce sync.Once
	closeErr  error
}

// Read reads from the last stage's output.
func (s *Stream) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Wait blocks until every stage has exited and returns the failure of the
// first stage that did not exit cleanly. Every stage is reaped as soon as it
// exits whether or not Wait is called.
func (s *Stream) Wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.group.Wait()
	})
	return s.waitErr
}

// Close closes the read end of the pipeline and waits for its stages.
// Stages still writing receive a broken pipe.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.reader.Close()
	})

	if err := s.Wait(); err != nil {
		return err
	}

	return s.closeErr
}

package state

import (
	"bufio"
	"io"
	"os"
)

// Sink receives the report lines written by CheckErrors. Flush is called before
// CheckErrors returns so that nothing is lost when the caller exits right after.
type Sink interface {
	WriteLine(line string) error
	Flush() error
}

// WriterSink is a buffered Sink over an io.Writer.
type WriterSink struct {
	w *bufio.Writer
}

// NewWriterSink returns a Sink that writes one line per call to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: bufio.NewWriter(w)}
}

// WriteLine implements Sink.
func (s *WriterSink) WriteLine(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

// Flush implements Sink.
func (s *WriterSink) Flush() error { return s.w.Flush() }

func defaultSink() Sink { return NewWriterSink(os.Stdout) }

// Package stream provides the write/finalize, line-splitting and
// byte-counting primitives shared by the format engines. Writes into a
// sink are synchronous, so a saturated sink blocks the producer; that is
// the backpressure point that bounds memory regardless of input size.
package stream

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// ErrFinalized is returned by Write after the sink has been finalized
// or has failed.
var ErrFinalized = errors.New("stream: write after finalize")

// CountingReader wraps r and reports every read's byte count to onRead.
type CountingReader struct {
	r      io.Reader
	onRead func(int)
}

func NewCountingReader(r io.Reader, onRead func(int)) *CountingReader {
	return &CountingReader{r: r, onRead: onRead}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.onRead != nil {
		c.onRead(n)
	}
	return n, err
}

// Writer is the single output sink of one merge. It counts written
// bytes, refuses writes after finalization or a write error, and
// finalizes at most once.
type Writer struct {
	w         io.Writer
	onWrite   func(int)
	finalized bool
	err       error
}

func NewWriter(w io.Writer, onWrite func(int)) *Writer {
	return &Writer{w: w, onWrite: onWrite}
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.finalized {
		return 0, ErrFinalized
	}
	n, err := w.w.Write(p)
	if n > 0 && w.onWrite != nil {
		w.onWrite(n)
	}
	if err != nil {
		w.err = err
	}
	return n, err
}

func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Finalize flushes and closes the underlying sink. It is idempotent: a
// second call is a no-op returning the first call's result. A flush or
// close error surfaces here instead of being dropped.
func (w *Writer) Finalize() error {
	if w.finalized {
		return w.err
	}
	w.finalized = true
	if f, ok := w.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			w.err = err
			return err
		}
	}
	if c, ok := w.w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			w.err = err
			return err
		}
	}
	return w.err
}

// LineScanner splits a byte stream on '\n', trimming one trailing '\r'
// per line. A non-terminated trailing partial line is yielded at EOF.
// Built on bufio.Reader so line length is not capped by a token limit.
type LineScanner struct {
	br   *bufio.Reader
	line string
	err  error
	done bool
}

func NewLineScanner(r io.Reader) *LineScanner {
	return &LineScanner{br: bufio.NewReader(r)}
}

// Scan advances to the next line. It returns false at EOF or on error;
// Err distinguishes the two.
func (s *LineScanner) Scan() bool {
	if s.done {
		return false
	}
	chunk, err := s.br.ReadString('\n')
	if err == io.EOF {
		s.done = true
		if chunk == "" {
			return false
		}
		s.line = trimTerminator(chunk)
		return true
	}
	if err != nil {
		s.done = true
		s.err = err
		return false
	}
	s.line = trimTerminator(chunk)
	return true
}

// Line returns the most recently scanned line, without its terminator.
func (s *LineScanner) Line() string { return s.line }

// Err returns the first non-EOF read error, if any.
func (s *LineScanner) Err() error { return s.err }

func trimTerminator(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

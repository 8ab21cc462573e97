package confluence

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hkloudou/confluence/errors"
)

// Source is one lazily-resolved input chunk. Open is the single
// polymorphic accessor over the three input shapes (already-open
// stream, sync producer, context-aware producer); a Source is consumed
// exactly once and never rewound. Resolution happens only when the
// active format engine asks for the chunk, so no connection is held
// ahead of consumption.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

type readerSource struct {
	mu   sync.Mutex
	rc   io.ReadCloser
	used bool
}

// NewReaderSource wraps an already-open stream. The stream is single
// use: a second Open fails.
func NewReaderSource(rc io.ReadCloser) Source {
	return &readerSource{rc: rc}
}

func (s *readerSource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used {
		return nil, errors.Validationf("input", "stream source already consumed")
	}
	s.used = true
	return s.rc, nil
}

type producerSource struct {
	fn func() (io.ReadCloser, error)
}

// NewProducerSource wraps a zero-argument producer that opens the
// stream on demand.
func NewProducerSource(fn func() (io.ReadCloser, error)) Source {
	return &producerSource{fn: fn}
}

func (s *producerSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return s.fn()
}

type ctxProducerSource struct {
	fn func(ctx context.Context) (io.ReadCloser, error)
}

// NewContextProducerSource wraps a producer whose resolution is itself
// asynchronous and cancellable.
func NewContextProducerSource(fn func(ctx context.Context) (io.ReadCloser, error)) Source {
	return &ctxProducerSource{fn: fn}
}

func (s *ctxProducerSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return s.fn(ctx)
}

type gzipSource struct {
	inner Source
}

// NewGzipSource wraps a source whose bytes are gzip-compressed,
// decompressing transparently as the engine reads.
func NewGzipSource(inner Source) Source {
	return &gzipSource{inner: inner}
}

func (s *gzipSource) Open(ctx context.Context) (io.ReadCloser, error) {
	rc, err := s.inner.Open(ctx)
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("gzip header: %w", err)
	}
	return &gzipReadCloser{zr: zr, rc: rc}, nil
}

type gzipReadCloser struct {
	zr *gzip.Reader
	rc io.ReadCloser
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	rerr := g.rc.Close()
	if zerr != nil {
		return zerr
	}
	return rerr
}

package engine

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/hkloudou/confluence/internal/stream"
)

// textOpeners builds one opener per literal chunk.
func textOpeners(chunks ...string) []Opener {
	openers := make([]Opener, len(chunks))
	for i, c := range chunks {
		openers[i] = func(ctx context.Context) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(c)), nil
		}
	}
	return openers
}

// byteOpeners builds one opener per raw chunk.
func byteOpeners(chunks ...[]byte) []Opener {
	openers := make([]Opener, len(chunks))
	for i, c := range chunks {
		openers[i] = func(ctx context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(c)), nil
		}
	}
	return openers
}

func sinkWriter() (*bytes.Buffer, *stream.Writer) {
	var buf bytes.Buffer
	return &buf, stream.NewWriter(&buf, nil)
}

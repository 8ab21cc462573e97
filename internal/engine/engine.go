// Package engine holds the per-format reconstruction logic. Each engine
// consumes an ordered list of lazily-opened inputs and writes one
// well-formed output stream; it never buffers more than a small constant
// amount of data.
package engine

import (
	"context"
	"io"
)

// Opener resolves one input into a ready stream. The dispatcher builds
// these so that resolution, cancellation polling and byte counting all
// happen at the moment the engine asks for the input, and not before.
type Opener func(ctx context.Context) (io.ReadCloser, error)

package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/hkloudou/confluence/internal/stream"
)

// MergeCSV merges newline-delimited text chunks. The first non-empty
// line of the first contributing input becomes the canonical header and
// is written once; a later input whose first non-empty line is
// byte-identical to it has that line dropped. Differing headers are NOT
// reconciled: they pass through as ordinary data lines. Every emitted
// line gets a normalized trailing '\n' whatever its original terminator.
func MergeCSV(ctx context.Context, inputs []Opener, out *stream.Writer) error {
	var header string
	headerSeen := false

	for i, open := range inputs {
		rc, err := open(ctx)
		if err != nil {
			return err
		}
		if err := copyCSVInput(ctx, i, rc, out, &header, &headerSeen); err != nil {
			rc.Close()
			return err
		}
		if err := rc.Close(); err != nil {
			return fmt.Errorf("close input %d: %w", i, err)
		}
	}
	return nil
}

func copyCSVInput(ctx context.Context, index int, r io.Reader, out *stream.Writer, header *string, headerSeen *bool) error {
	sc := stream.NewLineScanner(r)
	candidate := true // next non-empty line is this input's header candidate

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Line()
		if candidate {
			if line == "" {
				// blank lines ahead of the header carry nothing
				continue
			}
			candidate = false
			if !*headerSeen {
				*header = line
				*headerSeen = true
			} else if line == *header {
				// duplicate header, drop it
				continue
			}
		}
		if _, err := out.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input %d: %w", index, err)
	}
	return nil
}

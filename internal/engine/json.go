package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/hkloudou/confluence/errors"
	"github.com/hkloudou/confluence/internal/stream"
)

const (
	jsonReadChunk = 32 * 1024
	// pending element bytes are flushed once they reach this size,
	// capping memory no matter how large a single input is
	jsonFlushThreshold = 64 * 1024
)

// MergeJSON merges inputs that each hold one JSON array, emitting a
// single well-formed array. Each input is walked byte by byte: bracket
// depth is tracked only outside string literals, an escape flag keeps
// `\"` and `\\` from terminating a string early, and everything between
// an input's outer brackets is forwarded verbatim. Empty arrays
// contribute nothing; a separating comma is written only between
// contributions from different inputs.
func MergeJSON(ctx context.Context, inputs []Opener, out *stream.Writer) error {
	if _, err := out.WriteString("["); err != nil {
		return err
	}

	wrote := false // some earlier input already contributed an element
	for i, open := range inputs {
		rc, err := open(ctx)
		if err != nil {
			return err
		}
		err = scanJSONInput(ctx, i, rc, out, &wrote)
		if err != nil {
			rc.Close()
			return err
		}
		if err := rc.Close(); err != nil {
			return fmt.Errorf("close input %d: %w", i, err)
		}
	}

	if _, err := out.WriteString("]"); err != nil {
		return err
	}
	return nil
}

// jsonScan is the per-input state of the character walk.
type jsonScan struct {
	started     bool
	finished    bool
	depth       int
	inString    bool
	escapeNext  bool
	contributed bool
}

func scanJSONInput(ctx context.Context, index int, r io.Reader, out *stream.Writer, wrote *bool) error {
	var st jsonScan
	pending := make([]byte, 0, jsonFlushThreshold)
	chunk := make([]byte, jsonReadChunk)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		_, err := out.Write(pending)
		pending = pending[:0]
		return err
	}

	for {
		// the cancellation checkpoint of the per-character scan
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := r.Read(chunk)
		for _, b := range chunk[:n] {
			keep, err := st.step(index, b)
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
			if !st.contributed {
				st.contributed = true
				if *wrote {
					pending = append(pending, ',')
				}
				*wrote = true
			}
			pending = append(pending, b)
			if len(pending) >= jsonFlushThreshold {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read input %d: %w", index, readErr)
		}
	}

	if !st.started {
		return errors.Formatf(index, "expected '[' to open a JSON array")
	}
	if !st.finished {
		if st.inString {
			return errors.Formatf(index, "unterminated string literal at end of input")
		}
		return errors.Formatf(index, "unbalanced brackets at end of input (depth %d)", st.depth)
	}
	return flush()
}

// step advances the state machine by one byte and reports whether the
// byte belongs to the merged content (i.e. sits between the input's
// outer brackets).
func (st *jsonScan) step(index int, b byte) (bool, error) {
	if st.finished {
		if isJSONSpace(b) {
			return false, nil
		}
		return false, errors.Formatf(index, "unexpected %q after end of array", b)
	}

	if !st.started {
		if isJSONSpace(b) {
			return false, nil
		}
		if b != '[' {
			return false, errors.Formatf(index, "expected '[' to open a JSON array, found %q", b)
		}
		st.started = true
		st.depth = 1
		return false, nil
	}

	if st.inString {
		switch {
		case st.escapeNext:
			st.escapeNext = false
		case b == '\\':
			st.escapeNext = true
		case b == '"':
			st.inString = false
		}
		return true, nil
	}

	switch b {
	case '"':
		st.inString = true
		return true, nil
	case '[':
		st.depth++
		return true, nil
	case ']':
		st.depth--
		if st.depth == 0 {
			st.finished = true
			return false, nil
		}
		return true, nil
	default:
		if st.depth == 1 && !st.contributed && isJSONSpace(b) {
			// whitespace ahead of the input's first element
			return false, nil
		}
		return true, nil
	}
}

func isJSONSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

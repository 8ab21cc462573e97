package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"golang.org/x/sync/errgroup"

	"github.com/hkloudou/confluence/errors"
	"github.com/hkloudou/confluence/internal/stream"
)

// arrowBatch carries one decoded record plus the index of the input it
// came from, so codec failures can name the offending chunk.
type arrowBatch struct {
	rec   arrow.Record
	input int
}

// MergeArrow re-frames the record batches of every input into a single
// IPC encode session, producing exactly one schema message and one
// end-of-stream marker for the merged output. Byte concatenation would
// leave one EOS per chunk and most readers stop at the first.
//
// Decode-and-forward and encode-and-pipe run as two goroutines coupled
// by an unbuffered channel: the encoder pulls the next batch, the
// decoder supplies it, and neither side ever holds more than one batch.
// A failure on either side cancels the other and the encode session is
// closed so no allocator resources dangle. All inputs must share one
// schema; a mismatch surfaces from the codec as a CodecError.
func MergeArrow(ctx context.Context, inputs []Opener, out *stream.Writer) error {
	batches := make(chan arrowBatch)
	schemaCh := make(chan *arrow.Schema, 1) // first input's schema, so batchless chunks still frame

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(batches)
		schemaSent := false
		for i, open := range inputs {
			if err := gctx.Err(); err != nil {
				return err
			}
			rc, err := open(gctx)
			if err != nil {
				return err
			}
			err = decodeArrowInput(gctx, i, rc, batches, schemaCh, &schemaSent)
			closeErr := rc.Close()
			if err != nil {
				return err
			}
			if closeErr != nil {
				return fmt.Errorf("close input %d: %w", i, closeErr)
			}
		}
		return nil
	})

	g.Go(func() error {
		var w *ipc.Writer
		defer func() {
			if w != nil {
				// abort path: release the encode session; the EOS it
				// writes lands in output already deemed partial
				w.Close()
			}
		}()

		for b := range batches {
			if w == nil {
				w = ipc.NewWriter(out, ipc.WithSchema(b.rec.Schema()))
			}
			err := w.Write(b.rec)
			b.rec.Release()
			if err != nil {
				return &errors.CodecError{Input: b.input, Err: err}
			}
		}

		if w == nil {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case s := <-schemaCh:
				// every batch-less input still decoded a schema; emit
				// it with the EOS so the merged stream stays readable
				w = ipc.NewWriter(out, ipc.WithSchema(s))
			default:
				// decoder failed before producing anything
				return nil
			}
		}

		err := w.Close()
		w = nil
		if err != nil {
			return fmt.Errorf("finalize encode session: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func decodeArrowInput(ctx context.Context, index int, r io.Reader, batches chan<- arrowBatch, schemaCh chan<- *arrow.Schema, schemaSent *bool) error {
	rdr, err := ipc.NewReader(r)
	if err != nil {
		return &errors.CodecError{Input: index, Err: err}
	}
	defer rdr.Release()

	if !*schemaSent {
		*schemaSent = true
		schemaCh <- rdr.Schema()
	}

	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		select {
		case batches <- arrowBatch{rec: rec, input: index}:
		case <-ctx.Done():
			rec.Release()
			return ctx.Err()
		}
	}
	if err := rdr.Err(); err != nil {
		return &errors.CodecError{Input: index, Err: err}
	}
	return nil
}

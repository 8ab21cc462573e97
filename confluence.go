// Package confluence merges an ordered sequence of independently-sourced
// chunks that together encode one logical dataset — CSV, JSON array or
// Arrow IPC stream — into a single byte stream that is a valid instance
// of that format, not a byte concatenation. Memory stays bounded by a
// small constant regardless of total size: chunks are resolved one at a
// time, content is forwarded in small pieces, and synchronous writes
// into the output sink couple producer and consumer rates.
package confluence

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hkloudou/confluence/errors"
	"github.com/hkloudou/confluence/internal/engine"
	"github.com/hkloudou/confluence/internal/stream"
	"github.com/hkloudou/confluence/internal/trace"
)

// Options configures one merge call.
type Options struct {
	// Inputs is the ordered, non-empty chunk sequence. Each source is
	// resolved exactly once, at the moment the engine consumes it.
	Inputs []Source

	// Output receives the merged stream. It is written sequentially by
	// one goroutine at a time and, if it implements Flush or Close,
	// finalized once on success. On failure it is left in a partial
	// state; cleanup belongs to the caller.
	Output io.Writer

	// OnProgress, if set, receives throttled snapshots plus one final
	// unconditional snapshot with true totals.
	OnProgress func(ProgressSnapshot)

	// Throttle is the minimum spacing between progress callbacks.
	// Zero means the 1s default; Unthrottled reports every update.
	Throttle time.Duration
}

// URLOptions configures a merge whose chunks are fetched over http(s).
type URLOptions struct {
	// URLs is the ordered, non-empty list of chunk URLs. Every entry
	// must be http(s); violations fail before any I/O.
	URLs []string

	// Client issues the GETs; nil means http.DefaultClient (which
	// follows redirects).
	Client *http.Client

	Output     io.Writer
	OnProgress func(ProgressSnapshot)
	Throttle   time.Duration
}

// Merge reconstructs one valid Format stream on opts.Output from the
// ordered chunks in opts.Inputs. It returns once the output is fully
// finalized, or with the first error; cancellation of ctx is honored at
// every suspension point (before each input, per CSV line, inside the
// JSON byte scan, before each Arrow batch, inside fetches). Bytes
// already written are never rolled back.
func Merge(ctx context.Context, format Format, opts Options) error {
	switch format {
	case FormatCSV, FormatJSONArray, FormatArrowStream:
	default:
		return errors.Validationf("format", "unknown format %q", string(format))
	}
	if len(opts.Inputs) == 0 {
		return errors.Validationf("inputs", "at least one input is required")
	}
	if opts.Output == nil {
		return errors.Validationf("output", "output sink is required")
	}

	tr := trace.FromContext(ctx)
	tr.RecordSpan("Merge.Start", map[string]interface{}{
		"format": string(format),
		"inputs": len(opts.Inputs),
	})

	tk := newTracker(len(opts.Inputs), opts.Throttle, opts.OnProgress)
	defer tk.finish()

	out := stream.NewWriter(opts.Output, tk.addWritten)
	openers := make([]engine.Opener, len(opts.Inputs))
	for i, src := range opts.Inputs {
		openers[i] = resolver(i, src, tk, tr)
	}

	var err error
	switch format {
	case FormatCSV:
		err = engine.MergeCSV(ctx, openers, out)
	case FormatJSONArray:
		err = engine.MergeJSON(ctx, openers, out)
	case FormatArrowStream:
		err = engine.MergeArrow(ctx, openers, out)
	}
	if err != nil {
		tr.RecordSpan("Merge.Failed", map[string]interface{}{"error": err.Error()})
		return err
	}

	if err := out.Finalize(); err != nil {
		tr.RecordSpan("Merge.Failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	tr.RecordSpan("Merge.Done")
	return nil
}

// MergeFromURLs is Merge over http(s)-fetched chunks. All URLs are
// validated eagerly, before any network call or byte of output.
func MergeFromURLs(ctx context.Context, format Format, opts URLOptions) error {
	if len(opts.URLs) == 0 {
		return errors.Validationf("urls", "at least one URL is required")
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	sources := make([]Source, len(opts.URLs))
	for i, raw := range opts.URLs {
		if err := validateURL(raw); err != nil {
			return err
		}
		sources[i] = NewURLSource(client, raw)
	}
	return Merge(ctx, format, Options{
		Inputs:     sources,
		Output:     opts.Output,
		OnProgress: opts.OnProgress,
		Throttle:   opts.Throttle,
	})
}

// resolver builds the opener for input i: cancellation poll, tracker
// advance, lazy resolution, then byte counting on the ready stream.
// Input i+1 is not resolved until the engine asks for it.
func resolver(i int, src Source, tk *tracker, tr *trace.Trace) engine.Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tk.beginInput(i)
		tr.RecordSpan("Merge.OpenInput", map[string]interface{}{"input": i})
		rc, err := src.Open(ctx)
		if err != nil {
			return nil, err
		}
		return &countedInput{
			r:  stream.NewCountingReader(rc, tk.addRead),
			rc: rc,
		}, nil
	}
}

type countedInput struct {
	r  *stream.CountingReader
	rc io.ReadCloser
}

func (c *countedInput) Read(p []byte) (int, error) { return c.r.Read(p) }
func (c *countedInput) Close() error               { return c.rc.Close() }

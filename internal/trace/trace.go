package trace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const traceKey contextKey = "confluence_trace"

// Trace holds timing information for one merge invocation
type Trace struct {
	mu     sync.Mutex
	id     string
	spans  []Span
	start  time.Time
	last   time.Time
	enable bool
}

// Span represents one timed step of a merge
type Span struct {
	Name    string
	Elapsed time.Duration
	Details map[string]interface{}
}

// NewTrace creates a new trace with a fresh merge id
func NewTrace() *Trace {
	now := time.Now()
	return &Trace{
		id:     uuid.NewString(),
		spans:  make([]Span, 0),
		start:  now,
		last:   now,
		enable: true,
	}
}

// WithTrace adds a trace to context
func WithTrace(ctx context.Context) context.Context {
	return context.WithValue(ctx, traceKey, NewTrace())
}

// FromContext gets trace from context
func FromContext(ctx context.Context) *Trace {
	if tr, ok := ctx.Value(traceKey).(*Trace); ok {
		return tr
	}
	// Return disabled trace if not found
	return &Trace{enable: false}
}

// ID returns the merge id, empty for a disabled trace
func (t *Trace) ID() string {
	if !t.enable {
		return ""
	}
	return t.id
}

// RecordSpan records a span; Elapsed is the time since the previous span
func (t *Trace) RecordSpan(name string, details ...map[string]interface{}) {
	if !t.enable {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	span := Span{
		Name:    name,
		Elapsed: now.Sub(t.last),
	}
	t.last = now

	if len(details) > 0 {
		span.Details = details[0]
	}

	t.spans = append(t.spans, span)
}

// Total returns total elapsed time since trace start
func (t *Trace) Total() time.Duration {
	return time.Since(t.start)
}

// Dump returns formatted trace information
func (t *Trace) Dump() string {
	if !t.enable || len(t.spans) == 0 {
		return ""
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var output string
	output += fmt.Sprintf("=== Trace %s: Total %v ===\n", t.id, t.Total())

	for i, span := range t.spans {
		output += fmt.Sprintf("[%d] %s: +%v", i+1, span.Name, span.Elapsed)
		if len(span.Details) > 0 {
			output += fmt.Sprintf(" %+v", span.Details)
		}
		output += "\n"
	}

	return output
}

// GetSpans returns all recorded spans
func (t *Trace) GetSpans() []Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	spans := make([]Span, len(t.spans))
	copy(spans, t.spans)
	return spans
}

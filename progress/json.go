package progress

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/go-logr/logr"
)

// JSON renders each progress event as one JSON object per line, for
// machine consumption (log scrapers, dashboards).
type JSON struct {
	enc *json.Encoder
	mu  sync.Mutex
	log logr.Logger
}

// JSONOption configures a JSON renderer.
type JSONOption func(*JSON)

// WithJSONLogger sets a logger for reporting encode failures.
func WithJSONLogger(log logr.Logger) JSONOption {
	return func(r *JSON) {
		r.log = log
	}
}

// NewJSON creates a JSON-lines renderer writing to w.
func NewJSON(w io.Writer, opts ...JSONOption) *JSON {
	r := &JSON{
		enc: json.NewEncoder(w),
		log: logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report implements Reporter.
func (r *JSON) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.normalize()
	if err := r.enc.Encode(e); err != nil {
		r.log.Error(err, "failed to encode progress event")
	}
}

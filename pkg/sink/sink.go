// Package sink delivers serialized documents to configured destinations.
// Destinations fail independently: a write error at one sink never stops the
// same document from reaching the others.
package sink

import (
	"context"
	"errors"

	"github.com/rdswitchboard/graph-exporter/pkg/logging"
)

// ContentType of every exported document.
const ContentType = "application/json"

// Sink persists one document under a relative key.
type Sink interface {
	// Put writes the payload under key. Keys use forward slashes and may
	// contain one directory level (<label>/<identifier>.json).
	Put(ctx context.Context, key string, data []byte) error

	// Name identifies the destination in logs.
	Name() string
}

// Dispatcher fans one document out to every configured sink.
type Dispatcher struct {
	sinks []Sink
}

// NewDispatcher creates a dispatcher over the given sinks.
func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// Empty reports whether no destination is configured.
func (d *Dispatcher) Empty() bool {
	return len(d.sinks) == 0
}

// Put writes the document to every sink. Per-destination failures are logged
// and collected; the returned error is non-nil only if every destination
// failed. Name collisions across roots are last-write-wins at each sink.
func (d *Dispatcher) Put(ctx context.Context, key string, data []byte) error {
	var errs []error
	for _, s := range d.sinks {
		if err := s.Put(ctx, key, data); err != nil {
			logging.Error("sink write failed", "sink", s.Name(), "key", key, "error", err)
			errs = append(errs, err)
			continue
		}
		logging.Debug("wrote document", "sink", s.Name(), "key", key, "bytes", len(data))
	}
	if len(errs) == len(d.sinks) && len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Document is a view that can check its own completeness
type Document interface {
	Validate() error
}

// Gate returns cached documents or generates and persists them.
// Concurrent misses on the same key share a single generation, which
// outlives any one caller giving up on it.
type Gate struct {
	store   Store
	log     logrus.FieldLogger
	flight  singleflight.Group
	timeout time.Duration
}

// GateOption configures a Gate
type GateOption func(*Gate)

// WithGenerateTimeout bounds each shared generation. Zero means no bound.
func WithGenerateTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		g.timeout = d
	}
}

// NewGate wraps a store
func NewGate(store Store, log logrus.FieldLogger, opts ...GateOption) *Gate {
	if log == nil {
		log = logrus.StandardLogger()
	}
	g := &Gate{store: store, log: log}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store returns the underlying store
func (g *Gate) Store() Store {
	return g.store
}

// GetOrGenerate returns the document cached under key, or runs generate and
// persists its result. A failed generation writes nothing. A cached blob that
// does not decode into a valid document is treated as a miss. A caller whose
// ctx ends stops waiting, while the generation carries on for the others.
func GetOrGenerate[T Document](ctx context.Context, g *Gate, key string, generate func(context.Context) (T, error)) (T, error) {
	var zero T

	if doc, ok, err := lookup[T](ctx, g, key); err != nil {
		return zero, err
	} else if ok {
		return doc, nil
	}

	ch := g.flight.DoChan(key, func() (any, error) {
		ctx, cancel := g.generateContext(ctx)
		defer cancel()

		// another caller may have filled the key while we waited
		if doc, ok, err := lookup[T](ctx, g, key); err != nil || ok {
			return doc, err
		}

		start := time.Now()
		doc, err := generate(ctx)
		if err != nil {
			return zero, err
		}
		if err := doc.Validate(); err != nil {
			return zero, err
		}

		blob, err := json.Marshal(doc)
		if err != nil {
			return zero, fmt.Errorf("encode %s: %w", key, err)
		}
		if err := g.store.Set(ctx, key, blob); err != nil {
			return zero, err
		}

		g.log.WithFields(logrus.Fields{
			"key":      key,
			"bytes":    len(blob),
			"duration": time.Since(start).Round(time.Millisecond),
		}).Info("generated document")

		return doc, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			g.log.WithField("key", key).Debug("shared in-flight generation")
		}
		return res.Val.(T), nil
	}
}

// generateContext keeps the caller's values but not its cancellation
func (g *Gate) generateContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if g.timeout > 0 {
		return context.WithTimeout(ctx, g.timeout)
	}
	return context.WithCancel(ctx)
}

// Raw returns the cached bytes for key without decoding them
func (g *Gate) Raw(ctx context.Context, key string) ([]byte, bool, error) {
	return g.store.Get(ctx, key)
}

// Invalidate removes the given keys
func (g *Gate) Invalidate(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := g.store.Delete(ctx, key); err != nil {
			return err
		}
		g.log.WithField("key", key).Debug("invalidated")
	}
	return nil
}

func lookup[T Document](ctx context.Context, g *Gate, key string) (T, bool, error) {
	var doc T

	blob, ok, err := g.store.Get(ctx, key)
	if err != nil || !ok {
		return doc, false, err
	}

	if err := json.Unmarshal(blob, &doc); err != nil {
		g.log.WithFields(logrus.Fields{"key": key, "error": err}).Warn("cached document does not decode, regenerating")
		var empty T
		return empty, false, nil
	}
	if err := doc.Validate(); err != nil {
		g.log.WithFields(logrus.Fields{"key": key, "error": err}).Warn("cached document incomplete, regenerating")
		var empty T
		return empty, false, nil
	}

	return doc, true, nil
}

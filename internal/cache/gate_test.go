package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ppiankov/vibecheck/internal/model"
)

type testDoc struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func (d testDoc) Validate() error {
	if d.Name == "" {
		return model.ErrIncompleteContext
	}
	return nil
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestGate_GeneratesOnce(t *testing.T) {
	store := NewMemoryCache(0, time.Minute)
	gate := NewGate(store, quietLogger())
	ctx := context.Background()

	calls := 0
	gen := func(context.Context) (testDoc, error) {
		calls++
		return testDoc{Name: "summary", Value: 79}, nil
	}

	first, err := GetOrGenerate(ctx, gate, "k.json", gen)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	raw1, _, _ := store.Get(ctx, "k.json")

	second, err := GetOrGenerate(ctx, gate, "k.json", gen)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	raw2, _, _ := store.Get(ctx, "k.json")

	if calls != 1 {
		t.Errorf("Expected generator called once, got %d", calls)
	}
	if first != second {
		t.Errorf("Expected identical documents, got %+v and %+v", first, second)
	}
	if string(raw1) != string(raw2) {
		t.Error("Expected identical persisted bytes")
	}
}

func TestGate_FailureWritesNothing(t *testing.T) {
	store := NewMemoryCache(0, time.Minute)
	gate := NewGate(store, quietLogger())
	ctx := context.Background()

	boom := errors.New("upstream down")
	_, err := GetOrGenerate(ctx, gate, "k.json", func(context.Context) (testDoc, error) {
		return testDoc{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected generator error, got %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k.json"); ok {
		t.Error("Expected no cache entry after failure")
	}

	// an incomplete document is a failure too
	_, err = GetOrGenerate(ctx, gate, "k.json", func(context.Context) (testDoc, error) {
		return testDoc{Value: 1}, nil
	})
	if !errors.Is(err, model.ErrIncompleteContext) {
		t.Fatalf("Expected ErrIncompleteContext, got %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k.json"); ok {
		t.Error("Expected no cache entry for an incomplete document")
	}
}

func TestGate_InvalidCachedBlobRegenerates(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		blob string
	}{
		{"not json", `{"name": `},
		{"incomplete", `{"value": 3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryCache(0, time.Minute)
			_ = store.Set(ctx, "k.json", []byte(tt.blob))
			gate := NewGate(store, quietLogger())

			doc, err := GetOrGenerate(ctx, gate, "k.json", func(context.Context) (testDoc, error) {
				return testDoc{Name: "fresh"}, nil
			})
			if err != nil {
				t.Fatalf("Expected regeneration, got %v", err)
			}
			if doc.Name != "fresh" {
				t.Errorf("Expected fresh document, got %+v", doc)
			}
		})
	}
}

type failingStore struct {
	*MemoryCache
}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, ioError("read", "k", errors.New("disk on fire"))
}

func TestGate_StoreErrorSurfaces(t *testing.T) {
	gate := NewGate(failingStore{NewMemoryCache(0, time.Minute)}, quietLogger())

	called := false
	_, err := GetOrGenerate(context.Background(), gate, "k.json", func(context.Context) (testDoc, error) {
		called = true
		return testDoc{Name: "x"}, nil
	})
	if !errors.Is(err, model.ErrCacheIO) {
		t.Errorf("Expected ErrCacheIO, got %v", err)
	}
	if called {
		t.Error("Expected generator not to run when the store fails")
	}
}

func TestGate_ConcurrentMissesShareGeneration(t *testing.T) {
	gate := NewGate(NewMemoryCache(0, time.Minute), quietLogger())
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	gen := func(context.Context) (testDoc, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return testDoc{Name: "shared"}, nil
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := GetOrGenerate(ctx, gate, "k.json", gen)
			errs <- err
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected one generation, got %d", n)
	}
}

func TestGate_CancelledCallerDoesNotFailOthers(t *testing.T) {
	gate := NewGate(NewMemoryCache(0, time.Minute), quietLogger())

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	gen := func(ctx context.Context) (testDoc, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		select {
		case <-release:
			return testDoc{Name: "shared"}, nil
		case <-ctx.Done():
			return testDoc{}, ctx.Err()
		}
	}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := GetOrGenerate(first, gate, "k.json", gen)
		firstErr <- err
	}()
	<-started

	type result struct {
		doc testDoc
		err error
	}
	second := make(chan result, 1)
	go func() {
		doc, err := GetOrGenerate(context.Background(), gate, "k.json", gen)
		second <- result{doc, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled for the cancelled caller, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the generation")
	}

	close(release)
	res := <-second
	if res.err != nil {
		t.Fatalf("Expected the other caller to get the document, got %v", res.err)
	}
	if res.doc.Name != "shared" {
		t.Errorf("Expected shared document, got %+v", res.doc)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected one generation, got %d", n)
	}
	if _, ok, _ := gate.Raw(context.Background(), "k.json"); !ok {
		t.Error("Expected the generated document to be cached")
	}
}

func TestGate_GenerateTimeout(t *testing.T) {
	store := NewMemoryCache(0, time.Minute)
	gate := NewGate(store, quietLogger(), WithGenerateTimeout(20*time.Millisecond))

	_, err := GetOrGenerate(context.Background(), gate, "k.json", func(ctx context.Context) (testDoc, error) {
		<-ctx.Done()
		return testDoc{}, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
	if _, ok, _ := store.Get(context.Background(), "k.json"); ok {
		t.Error("Expected nothing cached after a timed out generation")
	}
}

func TestGate_Invalidate(t *testing.T) {
	store := NewMemoryCache(0, time.Minute)
	gate := NewGate(store, quietLogger())
	ctx := context.Background()

	calls := 0
	gen := func(context.Context) (testDoc, error) {
		calls++
		return testDoc{Name: "v"}, nil
	}

	_, _ = GetOrGenerate(ctx, gate, "k.json", gen)
	if err := gate.Invalidate(ctx, "k.json"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	_, _ = GetOrGenerate(ctx, gate, "k.json", gen)

	if calls != 2 {
		t.Errorf("Expected regeneration after invalidate, got %d calls", calls)
	}
}

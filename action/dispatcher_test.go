package action

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(noopWriter{})
	return l
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestDispatchDeliversPayload(t *testing.T) {
	d := New(silentLogger(), 2, 4)
	defer d.Close()

	var mu sync.Mutex
	var got map[string]interface{}
	done := make(chan struct{})

	d.Register(SignalNewEntry, func(ctx context.Context, signal string, payload json.RawMessage) {
		mu.Lock()
		defer mu.Unlock()
		_ = json.Unmarshal(payload, &got)
		close(done)
	})

	d.Dispatch(SignalNewEntry, map[string]interface{}{"id": 1, "title": "t"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.EqualValues(t, 1, got["id"])
	assert.Equal(t, "t", got["title"])
}

func TestDispatchUnregisteredSignalIsNoop(t *testing.T) {
	d := New(silentLogger(), 1, 1)
	defer d.Close()

	assert.NotPanics(t, func() {
		d.Dispatch("unknown_signal", map[string]int{"x": 1})
	})
}

func TestDispatchHandlerPanicIsIsolated(t *testing.T) {
	d := New(silentLogger(), 1, 2)
	defer d.Close()

	ran := make(chan struct{})
	d.Register(SignalEditEntry, func(ctx context.Context, signal string, payload json.RawMessage) {
		panic("boom")
	})
	d.Register(SignalEditEntry, func(ctx context.Context, signal string, payload json.RawMessage) {
		close(ran)
	})

	d.Dispatch(SignalEditEntry, map[string]int{"id": 1})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("second handler never ran after first panicked")
	}
}

func TestDispatchDropsOnFullQueue(t *testing.T) {
	d := New(silentLogger(), 1, 1)
	defer d.Close()

	block := make(chan struct{})
	started := make(chan struct{}, 4)
	d.Register(SignalNewLogbook, func(ctx context.Context, signal string, payload json.RawMessage) {
		started <- struct{}{}
		<-block
	})

	d.Dispatch(SignalNewLogbook, 1) // picked up by the single worker, blocks
	<-started
	d.Dispatch(SignalNewLogbook, 2) // fills the depth-1 queue
	d.Dispatch(SignalNewLogbook, 3) // dropped: queue full

	close(block)
}

// Package action implements the post-commit signal dispatcher: four named
// signals (new_entry, edit_entry, new_logbook, edit_logbook), fired after a
// write transaction commits, delivered to handlers on dedicated bounded
// worker pools. Dispatch never blocks the originating request and never
// persists work; a full queue drops the dispatch and logs rather than
// blocking the caller.
package action

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Signal names exposed by the core.
const (
	SignalNewEntry    = "new_entry"
	SignalEditEntry   = "edit_entry"
	SignalNewLogbook  = "new_logbook"
	SignalEditLogbook = "edit_logbook"
)

// Handler processes one dispatched signal. payload is a serialised
// snapshot: plain JSON data shaped like the API representation, never a
// live entity a handler could mutate the store through.
type Handler func(ctx context.Context, signal string, payload json.RawMessage)

type job struct {
	signal        string
	correlationID string
	payload       json.RawMessage
}

// Dispatcher owns one bounded queue and worker pool per signal name that has
// at least one registered handler.
type Dispatcher struct {
	logger      *logrus.Logger
	workerCount int
	queueDepth  int

	mu       sync.RWMutex
	handlers map[string][]Handler
	queues   map[string]chan job

	wg   sync.WaitGroup
	stop chan struct{}
}

// New constructs a Dispatcher. workerCount and queueDepth bound every
// signal's pool identically, matching config.ActionsConfig.
func New(logger *logrus.Logger, workerCount, queueDepth int) *Dispatcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueDepth <= 0 {
		queueDepth = 1
	}
	return &Dispatcher{
		logger:      logger,
		workerCount: workerCount,
		queueDepth:  queueDepth,
		handlers:    make(map[string][]Handler),
		queues:      make(map[string]chan job),
		stop:        make(chan struct{}),
	}
}

// Register adds h as a handler for signal. The first registration for a
// given signal name spins up its worker pool.
func (d *Dispatcher) Register(signal string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[signal] = append(d.handlers[signal], h)

	if _, ok := d.queues[signal]; ok {
		return
	}
	q := make(chan job, d.queueDepth)
	d.queues[signal] = q
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(signal, q)
	}
}

// Dispatch fires signal with v marshalled to JSON. It must only be called
// after the originating transaction has committed, never on a failure path.
// A queue at capacity drops the dispatch and logs rather than blocking the
// caller.
func (d *Dispatcher) Dispatch(signal string, v interface{}) {
	d.mu.RLock()
	q, ok := d.queues[signal]
	d.mu.RUnlock()
	if !ok {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		d.logger.WithField("signal", signal).WithError(err).Error("action: marshal payload")
		return
	}

	j := job{signal: signal, correlationID: uuid.NewString(), payload: payload}
	select {
	case q <- j:
	default:
		d.logger.WithFields(logrus.Fields{
			"signal":         signal,
			"correlation_id": j.correlationID,
		}).Warn("action: queue full, dropping dispatch")
	}
}

func (d *Dispatcher) worker(signal string, q chan job) {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			return
		case j := <-q:
			d.run(j)
		}
	}
}

func (d *Dispatcher) run(j job) {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[j.signal]...)
	d.mu.RUnlock()

	for _, h := range handlers {
		d.runOne(h, j)
	}
}

// runOne isolates one handler invocation: a panic or error never reaches the
// originating request and never stops the worker.
func (d *Dispatcher) runOne(h Handler, j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithFields(logrus.Fields{
				"signal":         j.signal,
				"correlation_id": j.correlationID,
				"panic":          r,
			}).Error("action: handler panicked")
		}
	}()
	h(context.Background(), j.signal, j.payload)
}

// Close stops every worker and waits for in-flight handler calls to finish.
// Queued-but-not-yet-started jobs are abandoned, matching the no-persistence
// dispatch contract.
func (d *Dispatcher) Close() {
	close(d.stop)
	d.wg.Wait()
}

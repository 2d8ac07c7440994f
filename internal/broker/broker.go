// Package broker delivers outbound frames to connections asynchronously.
//
// Send never blocks the caller: the payload is queued and a fixed pool of
// workers pushes it through the transport. A failed delivery goes back to
// the tail of the queue so other work can interleave, up to a bounded number
// of retries, after which it is dropped and logged. Tasks for connections
// that are no longer registered are dropped without retry.
//
// Each worker takes tasks in queue order, so with a single worker frames
// reach a connection in the order they were sent. With several workers the
// ordering across workers is best effort only.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Tyrowin/roomchat/internal/connection"
	"github.com/Tyrowin/roomchat/internal/protocol"
)

// ErrBrokerClosed is returned by Start after Shutdown.
var ErrBrokerClosed = errors.New("broker closed")

const (
	DefaultWorkers    = 1
	DefaultMaxRetries = 5
)

// ConnectionLookup resolves a connection ID to its live transport.
type ConnectionLookup interface {
	Get(id string) (connection.Conn, bool)
}

// Options configures the worker pool and retry budget.
type Options struct {
	Workers    int
	MaxRetries int
}

// DefaultOptions returns one worker and five retries.
func DefaultOptions() Options {
	return Options{Workers: DefaultWorkers, MaxRetries: DefaultMaxRetries}
}

func (o Options) sanitize() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	return o
}

// Stats is a snapshot of the broker counters.
type Stats struct {
	Enqueued  uint64
	Delivered uint64
	Retried   uint64
	Discarded uint64
	Dropped   uint64
}

// Broker is the asynchronous, retrying sender.
type Broker struct {
	conns ConnectionLookup
	queue *queue
	opts  Options
	log   *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	enqueued  atomic.Uint64
	delivered atomic.Uint64
	retried   atomic.Uint64
	discarded atomic.Uint64
	dropped   atomic.Uint64
}

// New builds a broker. Workers only run after Start.
func New(conns ConnectionLookup, opts Options, log *slog.Logger) *Broker {
	return &Broker{
		conns: conns,
		queue: newQueue(),
		opts:  opts.sanitize(),
		log:   log,
	}
}

// Start launches the worker pool. Calling it again is a no-op.
func (b *Broker) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return ErrBrokerClosed
	}
	if b.started {
		return nil
	}
	b.started = true

	workerCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	for i := 0; i < b.opts.Workers; i++ {
		b.wg.Add(1)
		go func(worker int) {
			defer b.wg.Done()
			b.work(workerCtx, worker)
		}(i)
	}

	b.log.Info("Delivery broker started", "workers", b.opts.Workers, "max_retries", b.opts.MaxRetries)
	return nil
}

// Send queues payload for connectionID and returns immediately.
func (b *Broker) Send(connectionID string, payload []byte) {
	if !b.queue.push(NewTask(connectionID, payload)) {
		b.dropped.Add(1)
		b.log.Warn("Broker closed, dropping message", "connection_id", connectionID)
		return
	}
	b.enqueued.Add(1)
}

// SendMessage encodes message and queues it for connectionID.
func (b *Broker) SendMessage(connectionID string, message any) {
	payload, err := protocol.Encode(message)
	if err != nil {
		b.dropped.Add(1)
		b.log.Error("Failed to encode outbound message", "connection_id", connectionID, "error", err)
		return
	}
	b.Send(connectionID, payload)
}

// Shutdown stops accepting work, abandons queued tasks and waits for the
// workers to finish the delivery they are in. It returns ctx.Err() if the
// workers do not stop in time.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	cancel := b.cancel
	b.mu.Unlock()

	abandoned := b.queue.close()
	b.dropped.Add(uint64(abandoned))
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("Delivery broker stopped", "abandoned", abandoned)
		return nil
	case <-ctx.Done():
		b.log.Warn("Delivery broker shutdown timed out", "abandoned", abandoned)
		return ctx.Err()
	}
}

// Stats returns the current counters.
func (b *Broker) Stats() Stats {
	return Stats{
		Enqueued:  b.enqueued.Load(),
		Delivered: b.delivered.Load(),
		Retried:   b.retried.Load(),
		Discarded: b.discarded.Load(),
		Dropped:   b.dropped.Load(),
	}
}

// Pending returns the number of queued tasks.
func (b *Broker) Pending() int {
	return b.queue.len()
}

func (b *Broker) work(ctx context.Context, worker int) {
	for {
		task, ok := b.queue.pop(ctx)
		if !ok {
			return
		}
		b.process(task, worker)
	}
}

func (b *Broker) process(task *Task, worker int) {
	conn, ok := b.conns.Get(task.ConnectionID)
	if !ok {
		task.Discard()
		b.discarded.Add(1)
		b.log.Debug("Connection gone, discarding message", "connection_id", task.ConnectionID, "worker", worker)
		return
	}

	err := deliver(conn, task.Payload)
	if err == nil {
		task.Deliver()
		b.delivered.Add(1)
		return
	}

	switch task.Fail(b.opts.MaxRetries) {
	case Failed:
		b.retried.Add(1)
		b.log.Warn("Delivery failed, retrying",
			"connection_id", task.ConnectionID,
			"attempt", task.Retries(),
			"error", err)
		task.Requeued()
		if !b.queue.push(task) {
			b.dropped.Add(1)
		}
	default:
		b.discarded.Add(1)
		b.log.Error("Delivery failed, giving up",
			"connection_id", task.ConnectionID,
			"retries", task.Retries(),
			"error", err)
	}
}

func deliver(conn connection.Conn, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()
	return conn.SendText(payload)
}

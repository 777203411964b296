package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/starterkit/webapp/internal/api/metrics"
	"github.com/starterkit/webapp/internal/core/domain"
	"github.com/starterkit/webapp/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes auth events to a fixed set of workers using consistent
// hashing on the account email, so events of one account are recorded in
// the order they happened.
type Dispatcher struct {
	workers []chan domain.AuthEvent
	depth   []string
	service ports.AuditService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AuditService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuthEvent, numWorkers),
		depth:   make([]string, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuthEvent, channelBuffer)
		d.depth[i] = strconv.Itoa(i)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands event to the worker owning its email. Auth requests must
// never wait on the audit trail: when the worker channel is full the event
// is dropped and counted.
func (d *Dispatcher) Enqueue(event domain.AuthEvent) {
	idx := d.shardIndex(event.Email)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(d.depth[idx]).Inc()
	default:
		metrics.AuditDroppedTotal.Inc()
		d.log.Warn().
			Str("type", string(event.Type)).
			Int("worker_id", idx).
			Msg("audit queue full, event dropped")
	}
}

func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.AuditQueueDepth.WithLabelValues(d.depth[id]).Dec()
			if err := d.service.Record(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("type", string(event.Type)).
					Str("email", event.Email).
					Int("worker_id", id).
					Msg("audit event recording failed")
			}
		}
	}
}

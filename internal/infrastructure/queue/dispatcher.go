package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/etiya/crm-api/internal/core/domain"
	"github.com/etiya/crm-api/internal/core/ports"
	"github.com/etiya/crm-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	processTimeout = 5 * time.Second
)

// Dispatcher routes task events to a fixed set of workers by task id,
// guaranteeing per-task event ordering.
type Dispatcher struct {
	workers []chan domain.TaskEvent
	service ports.TaskEventService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.TaskEventService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.TaskEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.TaskEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Record implements ports.TaskEventRecorder. It never blocks: when the
// worker's buffer is full the event is dropped and counted.
func (d *Dispatcher) Record(event domain.TaskEvent) {
	idx := d.shardIndex(event.TaskID)
	select {
	case d.workers[idx] <- event:
		metrics.TaskEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.TaskEventsDroppedTotal.Inc()
		d.log.Warn().
			Uint("task_id", event.TaskID).
			Str("type", string(event.Type)).
			Int("worker_id", idx).
			Msg("task event queue full, event dropped")
	}
}

// shardIndex maps a task id deterministically to a worker index.
func (d *Dispatcher) shardIndex(taskID uint) int {
	return int(taskID % uint(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.TaskEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			metrics.TaskEventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.process(ctx, id, event)
		}
	}
}

// drain processes whatever is still buffered after shutdown was requested.
func (d *Dispatcher) drain(id int, ch <-chan domain.TaskEvent) {
	for {
		select {
		case event := <-ch:
			d.process(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, id int, event domain.TaskEvent) {
	ctx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	if err := d.service.Process(ctx, event); err != nil {
		d.log.Error().Err(err).
			Uint("task_id", event.TaskID).
			Str("type", string(event.Type)).
			Int("worker_id", id).
			Msg("task event processing failed")
	}
}

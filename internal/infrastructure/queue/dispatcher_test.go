package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/etiya/crm-api/internal/core/domain"
)

type recordingService struct {
	mu     sync.Mutex
	byTask map[uint][]string
	total  int
}

func (s *recordingService) Process(_ context.Context, e domain.TaskEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byTask == nil {
		s.byTask = make(map[uint][]string)
	}
	s.byTask[e.TaskID] = append(s.byTask[e.TaskID], e.ID)
	s.total++
	return nil
}

func (s *recordingService) History(context.Context, uint, int) ([]domain.TaskEvent, error) {
	return nil, nil
}

func TestDispatcher_PreservesPerTaskOrder(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(3, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		for task := uint(1); task <= 4; task++ {
			d.Record(domain.TaskEvent{ID: id, TaskID: task, Type: domain.TaskEventUpdated})
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		svc.mu.Lock()
		done := svc.total == len(ids)*4
		svc.mu.Unlock()
		if done || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	d.Wait()

	for task := uint(1); task <= 4; task++ {
		got := svc.byTask[task]
		if len(got) != len(ids) {
			t.Fatalf("task %d: expected %d events, got %v", task, len(ids), got)
		}
		for i := range ids {
			if got[i] != ids[i] {
				t.Errorf("task %d: out of order %v", task, got)
				break
			}
		}
	}
}

func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	svc := &recordingService{}
	d := NewDispatcher(1, svc, zerolog.Nop())

	for i := 0; i < 10; i++ {
		d.Record(domain.TaskEvent{ID: "x", TaskID: 7})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	if svc.total != 10 {
		t.Errorf("expected buffered events drained, processed %d", svc.total)
	}
}

type stalledService struct {
	release     chan struct{}
	mu          sync.Mutex
	total       int
	hadDeadline bool
}

func (s *stalledService) Process(ctx context.Context, _ domain.TaskEvent) error {
	_, ok := ctx.Deadline()
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	s.mu.Lock()
	s.total++
	s.hadDeadline = s.hadDeadline || ok
	s.mu.Unlock()
	return nil
}

func (s *stalledService) History(context.Context, uint, int) ([]domain.TaskEvent, error) {
	return nil, nil
}

func TestDispatcher_RecordDoesNotBlockWhenQueueIsFull(t *testing.T) {
	svc := &stalledService{release: make(chan struct{})}
	d := NewDispatcher(1, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	const sent = channelBuffer + 44
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sent; i++ {
			d.Record(domain.TaskEvent{ID: "x", TaskID: 3, Type: domain.TaskEventUpdated})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		close(svc.release)
		cancel()
		t.Fatal("Record blocked while the event store was stalled")
	}

	close(svc.release)
	cancel()
	d.Wait()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.total < channelBuffer || svc.total >= sent {
		t.Errorf("expected between %d and %d events kept, got %d", channelBuffer, sent-1, svc.total)
	}
	if !svc.hadDeadline {
		t.Error("expected each event to be processed under a deadline")
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, &recordingService{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	if d.shardIndex(9) != d.shardIndex(9) || d.shardIndex(9) != 9%defaultWorkers {
		t.Error("shard index should be deterministic")
	}
}

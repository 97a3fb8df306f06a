package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/etiya/crm-api/internal/core/domain"
)

func TestTaskEventService_Process_HappyPath(t *testing.T) {
	repo := &stubEventRepo{}
	pub := &stubPublisher{}
	svc := NewTaskEventService(repo, pub, zerolog.Nop())

	err := svc.Process(context.Background(), domain.TaskEvent{ID: "e1", TaskID: 7, Type: domain.TaskEventAssigned, OccurredAt: fixedNow})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Errorf("expected event stored")
	}
	if len(pub.keys) != 1 || pub.keys[0] != "task.assigned" {
		t.Errorf("expected publish on task.assigned, got %v", pub.keys)
	}
}

func TestTaskEventService_Process_InsertFailure(t *testing.T) {
	repo := &stubEventRepo{insertErr: errBoom}
	pub := &stubPublisher{}
	svc := NewTaskEventService(repo, pub, zerolog.Nop())

	err := svc.Process(context.Background(), domain.TaskEvent{ID: "e1", TaskID: 7, Type: domain.TaskEventCreated})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected insert error, got %v", err)
	}
	if len(pub.keys) != 0 {
		t.Error("nothing should be published when the store fails")
	}
}

func TestTaskEventService_Process_PublishFailureIsNonFatal(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewTaskEventService(repo, &stubPublisher{err: errBoom}, zerolog.Nop())

	if err := svc.Process(context.Background(), domain.TaskEvent{ID: "e1", TaskID: 7, Type: domain.TaskEventCreated}); err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Error("event should still be stored")
	}
}

func TestTaskEventService_Process_NilPublisher(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewTaskEventService(repo, nil, zerolog.Nop())

	if err := svc.Process(context.Background(), domain.TaskEvent{ID: "e1", TaskID: 1, Type: domain.TaskEventDeleted}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTaskEventService_History_Limits(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewTaskEventService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	for _, typ := range []domain.TaskEventType{domain.TaskEventCreated, domain.TaskEventAssigned, domain.TaskEventStatusChanged} {
		_ = svc.Process(ctx, domain.TaskEvent{ID: string(typ), TaskID: 3, Type: typ})
	}
	_ = svc.Process(ctx, domain.TaskEvent{ID: "other", TaskID: 4, Type: domain.TaskEventCreated})

	events, err := svc.History(ctx, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != defaultHistoryLimit {
		t.Errorf("expected default limit, got %d", repo.lastLimit)
	}
	if len(events) != 3 || events[0].Type != domain.TaskEventStatusChanged {
		t.Errorf("expected newest first for task 3, got %+v", events)
	}

	_, _ = svc.History(ctx, 3, 10_000)
	if repo.lastLimit != maxHistoryLimit {
		t.Errorf("expected limit capped at %d, got %d", maxHistoryLimit, repo.lastLimit)
	}
}

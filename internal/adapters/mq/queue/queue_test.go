package queue

import (
	"context"
	"testing"
	"time"

	"github.com/slitherlab/slither/internal/domain/model"
)

func event(id string) Event {
	return model.SessionEvent{SessionID: id, PlayerID: "p1", Score: 10}
}

func TestEnqueueDequeue(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, event("s1")) {
		t.Fatal("enqueue into empty queue failed")
	}
	if q.Len(ctx) != 1 {
		t.Fatalf("len = %d, want 1", q.Len(ctx))
	}

	ch := q.Dequeue(ctx)
	select {
	case e := <-ch:
		if e.SessionID != "s1" {
			t.Fatalf("dequeued %q, want s1", e.SessionID)
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue timed out")
	}
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, event("s1")) || !q.Enqueue(ctx, event("s2")) {
		t.Fatal("enqueue within capacity failed")
	}
	if q.Enqueue(ctx, event("s3")) {
		t.Fatal("enqueue beyond capacity succeeded")
	}
}

func TestCloseDrainsRemainingEvents(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	q.Enqueue(ctx, event("s1"))
	q.Enqueue(ctx, event("s2"))

	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !q.IsClosed() {
		t.Fatal("IsClosed = false after Close")
	}
	if q.Enqueue(ctx, event("s3")) {
		t.Fatal("enqueue succeeded on closed queue")
	}

	var got []string
	for e := range q.Dequeue(ctx) {
		got = append(got, e.SessionID)
	}
	if len(got) != 2 || got[0] != "s1" || got[1] != "s2" {
		t.Fatalf("drained %v, want [s1 s2]", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	q := NewInMemoryQueue()
	if err := q.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestDequeueStopsOnContextCancel(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx, cancel := context.WithCancel(context.Background())

	ch := q.Dequeue(ctx)
	cancel()
	q.Enqueue(context.Background(), event("s1"))

	select {
	case _, ok := <-ch:
		if ok {
			// The event may have raced the cancellation; the channel must
			// still close afterwards.
			if _, ok := <-ch; ok {
				t.Fatal("channel still open after cancel")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

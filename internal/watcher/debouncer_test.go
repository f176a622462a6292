package watcher

import (
	"testing"
	"time"

	"github.com/kortex-labs/memory-enforce/internal/index"
)

func collectFlushes(t *testing.T) (chan []FileEvent, func([]FileEvent)) {
	t.Helper()
	flushes := make(chan []FileEvent, 10)
	return flushes, func(batch []FileEvent) { flushes <- batch }
}

func waitFlush(t *testing.T, flushes chan []FileEvent) []FileEvent {
	t.Helper()
	select {
	case batch := <-flushes:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("no flush arrived")
		return nil
	}
}

func TestDebouncerCollapsesSamePath(t *testing.T) {
	flushes, onFlush := collectFlushes(t)
	d := NewDebouncer(50*time.Millisecond, 100, onFlush)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.go", Type: EventCreate})
	d.Add(FileEvent{Path: "a.go", Type: EventModify})
	d.Add(FileEvent{Path: "b.go", Type: EventModify})

	batch := waitFlush(t, flushes)
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want 2", len(batch))
	}
	for _, e := range batch {
		if e.Path == "a.go" && e.Type != EventModify {
			t.Errorf("a.go kept %s, want latest event", e.Type)
		}
	}
}

func TestDebouncerFlushesFullBatch(t *testing.T) {
	flushes, onFlush := collectFlushes(t)
	d := NewDebouncer(time.Hour, 3, onFlush)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.go", Type: EventModify})
	d.Add(FileEvent{Path: "b.go", Type: EventModify})
	d.Add(FileEvent{Path: "c.go", Type: EventModify})

	// the window is an hour, so only the batch cap can have flushed
	batch := waitFlush(t, flushes)
	if len(batch) != 3 {
		t.Fatalf("batch size = %d, want 3", len(batch))
	}
}

func TestDebouncerStopFlushesPending(t *testing.T) {
	flushes, onFlush := collectFlushes(t)
	d := NewDebouncer(time.Hour, 100, onFlush)

	d.Add(FileEvent{Path: "a.go", Type: EventDelete})
	d.Stop()

	batch := waitFlush(t, flushes)
	if len(batch) != 1 || batch[0].Path != "a.go" {
		t.Fatalf("batch = %+v", batch)
	}

	d.Add(FileEvent{Path: "b.go", Type: EventModify})
	select {
	case batch := <-flushes:
		t.Fatalf("flush after Stop: %+v", batch)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBatchPriority(t *testing.T) {
	small := make([]FileEvent, 2)
	medium := make([]FileEvent, 5)
	large := make([]FileEvent, 11)

	if p := batchPriority(small); p != index.PriorityHigh {
		t.Errorf("small batch priority = %d", p)
	}
	if p := batchPriority(medium); p != index.PriorityNormal {
		t.Errorf("medium batch priority = %d", p)
	}
	if p := batchPriority(large); p != index.PriorityLow {
		t.Errorf("large batch priority = %d", p)
	}
}

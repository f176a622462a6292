package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of file events. Events for the same path
// collapse to the latest one; a quiet window or a full batch triggers
// the flush callback.
type Debouncer struct {
	window   time.Duration
	maxBatch int
	onFlush  func([]FileEvent)

	mu      sync.Mutex
	events  map[string]FileEvent
	timer   *time.Timer
	stopped bool
}

func NewDebouncer(window time.Duration, maxBatch int, onFlush func([]FileEvent)) *Debouncer {
	return &Debouncer{
		window:   window,
		maxBatch: maxBatch,
		onFlush:  onFlush,
		events:   make(map[string]FileEvent),
	}
}

func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()

	if d.stopped {
		d.mu.Unlock()
		return
	}

	d.stopTimerLocked()
	d.events[event.Path] = event

	if len(d.events) >= d.maxBatch {
		batch := d.takeLocked()
		d.mu.Unlock()
		d.emit(batch)
		return
	}

	d.timer = time.AfterFunc(d.window, d.flushAfterQuiet)
	d.mu.Unlock()
}

func (d *Debouncer) flushAfterQuiet() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	batch := d.takeLocked()
	d.mu.Unlock()

	d.emit(batch)
}

// Stop flushes whatever is pending and refuses further events.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.stopTimerLocked()
	batch := d.takeLocked()
	d.mu.Unlock()

	d.emit(batch)
}

func (d *Debouncer) takeLocked() []FileEvent {
	batch := make([]FileEvent, 0, len(d.events))
	for _, event := range d.events {
		batch = append(batch, event)
	}
	d.events = make(map[string]FileEvent)
	d.stopTimerLocked()
	return batch
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) emit(batch []FileEvent) {
	if len(batch) > 0 && d.onFlush != nil {
		d.onFlush(batch)
	}
}

package jobs

import (
	"context"
	"maps"
	"sync"
	"time"
)

// RunStatus is the outcome of one maintenance step.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunSkipped   RunStatus = "skipped"
)

// RunEvent captures one step executed by the maintenance worker.
type RunEvent struct {
	Job        string
	Step       string
	Status     RunStatus
	OccurredAt time.Time
	Duration   time.Duration
	Error      string
	Metadata   map[string]any
}

// RunRecorder persists run events.
type RunRecorder interface {
	Record(ctx context.Context, event RunEvent) error
	List(ctx context.Context) ([]RunEvent, error)
	Clear(ctx context.Context) error
}

const defaultRecorderCapacity = 100

// InMemoryRunRecorder keeps the most recent events in memory.
type InMemoryRunRecorder struct {
	mu       sync.Mutex
	events   []RunEvent
	capacity int
	err      error
}

// NewInMemoryRunRecorder constructs a recorder holding at most capacity
// events. Non-positive capacity uses a default of 100.
func NewInMemoryRunRecorder(capacity int) *InMemoryRunRecorder {
	if capacity <= 0 {
		capacity = defaultRecorderCapacity
	}
	return &InMemoryRunRecorder{capacity: capacity}
}

func (r *InMemoryRunRecorder) Record(_ context.Context, event RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	event.Metadata = maps.Clone(event.Metadata)
	r.events = append(r.events, event)
	if overflow := len(r.events) - r.capacity; overflow > 0 {
		r.events = append([]RunEvent(nil), r.events[overflow:]...)
	}
	return nil
}

// Events returns a snapshot of recorded events, oldest first.
func (r *InMemoryRunRecorder) Events() []RunEvent {
	events, _ := r.List(context.Background())
	return events
}

// Last returns the most recent event for step.
func (r *InMemoryRunRecorder) Last(step string) (RunEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Step == step {
			return r.events[i], true
		}
	}
	return RunEvent{}, false
}

// Fail configures the recorder to return err on subsequent Record calls.
func (r *InMemoryRunRecorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *InMemoryRunRecorder) List(context.Context) ([]RunEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunEvent, len(r.events))
	copy(out, r.events)
	return out, nil
}

func (r *InMemoryRunRecorder) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	return nil
}

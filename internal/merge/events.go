package merge

import "context"

// EventKind tags one merge progress event.
type EventKind string

const (
	// EventKindStart marks the beginning of a merge run.
	EventKindStart EventKind = "start"
	// EventKindFile marks one file appended to the artifact.
	EventKindFile EventKind = "file"
	// EventKindDone marks a completed merge with its summary counters.
	EventKindDone EventKind = "done"
)

// Event is one progress notification emitted during a merge run.
type Event struct {
	Kind       EventKind
	Path       string
	FileCount  int
	TotalBytes int64
}

// emit delivers an event unless the channel is nil or the context is done.
func emit(executionContext context.Context, events chan<- Event, event Event) {
	if events == nil {
		return
	}
	select {
	case events <- event:
	case <-executionContext.Done():
	}
}

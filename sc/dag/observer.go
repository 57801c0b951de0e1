package dag

import (
	"fmt"
	"os"

	"github.com/kegliz/statchain/internal/logger"
)

// ObserverID identifies one observer registration on a graph. IDs are
// dense and monotonically increasing per graph; they are not reused.
type ObserverID uint64

// ObserverFunc is invoked after the engine assigns a new cached value to
// the observed vertex. raw holds the payload(s) fit into the vertex for
// this update; callbacks must not retain the slice and must not call
// back into the graph: mutating calls fail with ErrReentrantMutation
// and the values a callback needs arrive as arguments.
type ObserverFunc func(id VertexID, value float64, raw []float64)

type observerEntry struct {
	id ObserverID
	fn ObserverFunc
}

// AddObserver appends a callback to the vertex's observer list and
// returns its id. Observers are invoked in registration order.
func (g *Graph) AddObserver(id VertexID, fn ObserverFunc) (ObserverID, error) {
	if g.inWave {
		return 0, ErrReentrantMutation
	}
	if fn == nil {
		return 0, fmt.Errorf("dag: nil observer for vertex %q", id)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	v, ok := g.vertices[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}
	g.nextObserverID++
	oid := g.nextObserverID
	v.observers = append(v.observers, observerEntry{id: oid, fn: fn})
	return oid, nil
}

// RemoveObserver deletes the observer by identity. Removing an id that
// is not registered on the vertex is a no-op.
func (g *Graph) RemoveObserver(id VertexID, oid ObserverID) error {
	if g.inWave {
		return ErrReentrantMutation
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	v, ok := g.vertices[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}
	for i, entry := range v.observers {
		if entry.id == oid {
			v.observers = append(v.observers[:i], v.observers[i+1:]...)
			return nil
		}
	}
	return nil
}

// notifyLocked invokes the vertex's observers in registration order.
// A panicking callback is captured and logged; it never aborts the wave
// or the remaining observers.
func (g *Graph) notifyLocked(v *vertex, raw []float64) {
	if len(v.observers) == 0 {
		return
	}
	payload := make([]float64, len(raw))
	copy(payload, raw)
	for _, entry := range v.observers {
		g.invokeObserver(v, entry, payload)
	}
}

func (g *Graph) invokeObserver(v *vertex, entry observerEntry, raw []float64) {
	defer func() {
		if r := recover(); r != nil {
			l := g.log
			if l == nil {
				l = logger.NewLogger(logger.LoggerOptions{Writer: os.Stderr})
			}
			l.Error().
				Str("vertex", string(v.id)).
				Uint64("observer", uint64(entry.id)).
				Interface("panic", r).
				Msg("observer callback panicked")
		}
	}()
	entry.fn(v.id, v.cached, raw)
}

package room

import (
	"fmt"
	"sync"

	"groupcall/media"
	"groupcall/metric"
)

// Directory creates, looks up and destroys rooms by identifier. A room
// identifier absent from the directory does not exist.
type Directory struct {
	engine media.Engine
	metric *metric.Metrics

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewDirectory creates a new Directory instance.
func NewDirectory(engine media.Engine, met *metric.Metrics) *Directory {
	return &Directory{
		engine: engine,
		metric: met,
		rooms:  make(map[string]*Room),
	}
}

// GetOrCreate returns the room for roomID, constructing it (including its
// pipeline) under the directory lock so concurrent callers for the same
// identifier share one instance.
func (d *Directory) GetOrCreate(roomID string) (*Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.rooms[roomID]; ok {
		return r, nil
	}
	r, err := New(roomID, d.engine)
	if err != nil {
		return nil, fmt.Errorf("failed to create room %s: %w", roomID, err)
	}
	d.rooms[roomID] = r
	d.metric.IncrementActiveRooms()
	return r, nil
}

// Lookup returns the room for roomID if it exists.
func (d *Directory) Lookup(roomID string) (*Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[roomID]
	return r, ok
}

// Remove deletes the room if it exists and is still empty, releasing its
// pipeline at most once. A room that gained a member since the caller's
// emptiness check is left in place. A removed instance rejects further
// joins, so a racing join retries through GetOrCreate.
func (d *Directory) Remove(roomID string) {
	d.mu.Lock()
	r, ok := d.rooms[roomID]
	if !ok || !r.closeIfEmpty() {
		d.mu.Unlock()
		return
	}
	delete(d.rooms, roomID)
	d.mu.Unlock()

	d.metric.DecrementActiveRooms()
	r.releasePipeline()
}

// Count returns the number of registered rooms.
func (d *Directory) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms)
}

// Shutdown disposes every room. Called once at process teardown.
func (d *Directory) Shutdown() {
	d.mu.Lock()
	rooms := d.rooms
	d.rooms = make(map[string]*Room)
	d.mu.Unlock()

	for _, r := range rooms {
		r.Dispose()
		d.metric.DecrementActiveRooms()
	}
}

package server

import "slices"

// Registry maps room ids to rooms. It is only touched from the ChatServer
// event loop and does no locking of its own.
type Registry struct {
	rooms map[string]*Room
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// EnsureRoom returns the room stored under id, creating an empty one if
// there is none.
func (reg *Registry) EnsureRoom(id string) *Room {
	if r, ok := reg.rooms[id]; ok {
		return r
	}

	r := newRoom(id)
	reg.rooms[id] = r
	reg.order = append(reg.order, id)
	return r
}

func (reg *Registry) Get(id string) (*Room, bool) {
	r, ok := reg.rooms[id]
	return r, ok
}

func (reg *Registry) Delete(id string) {
	if _, ok := reg.rooms[id]; !ok {
		return
	}

	delete(reg.rooms, id)
	if i := slices.Index(reg.order, id); i >= 0 {
		reg.order = slices.Delete(reg.order, i, i+1)
	}
}

// List returns rooms in insertion order.
func (reg *Registry) List() []*Room {
	rooms := make([]*Room, 0, len(reg.order))
	for _, id := range reg.order {
		rooms = append(rooms, reg.rooms[id])
	}
	return rooms
}

func (reg *Registry) Len() int {
	return len(reg.rooms)
}

// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package socket

import (
	"time"

	"github.com/usbarmory/ublox-shortrange/errs"
)

// Table is a bounded collection of sockets keyed by Handle. Handle
// assignment always picks the smallest unused non-negative integer, so
// handles stay dense and predictable across churn.
type Table struct {
	capacity int
	sockets  map[Handle]Socket
}

// NewTable allocates a Table bounded to capacity sockets.
func NewTable(capacity int) *Table {
	return &Table{
		capacity: capacity,
		sockets:  make(map[Handle]Socket, capacity),
	}
}

// Len returns the number of live sockets.
func (t *Table) Len() int { return len(t.sockets) }

// Capacity returns the table's maximum size.
func (t *Table) Capacity() int { return t.capacity }

func (t *Table) nextHandle() Handle {
	for h := Handle(0); ; h++ {
		if _, ok := t.sockets[h]; !ok {
			return h
		}
	}
}

// Add inserts sock under a newly assigned handle and returns it. It returns
// errs.SocketSetFull if the table is already at capacity.
func (t *Table) Add(newSocket func(h Handle) Socket) (Socket, error) {
	if len(t.sockets) >= t.capacity {
		return nil, errs.SocketSetFull
	}

	h := t.nextHandle()
	s := newSocket(h)
	t.sockets[h] = s

	return s, nil
}

// Get looks up the socket registered under handle.
func (t *Table) Get(handle Handle) (Socket, error) {
	s, ok := t.sockets[handle]
	if !ok {
		return nil, errs.NotFound
	}
	return s, nil
}

// Remove deletes the socket registered under handle.
func (t *Table) Remove(handle Handle) error {
	if _, ok := t.sockets[handle]; !ok {
		return errs.NotFound
	}
	delete(t.sockets, handle)
	return nil
}

// Recycle scans every socket for a TCP socket in ShutdownForWrite whose
// read timeout has elapsed as of now, removing each one it finds. It
// reports whether at least one slot was freed.
func (t *Table) Recycle(now time.Time) bool {
	freed := false

	for h, s := range t.sockets {
		tcp, ok := s.(*TCP)
		if !ok {
			continue
		}
		if tcp.Recyclable(now) {
			delete(t.sockets, h)
			freed = true
		}
	}

	return freed
}

// Range calls f for every live socket, in unspecified order. f must not
// mutate the table.
func (t *Table) Range(f func(Socket)) {
	for _, s := range t.sockets {
		f(s)
	}
}

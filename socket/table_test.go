// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package socket

import (
	"testing"
	"time"

	"github.com/usbarmory/ublox-shortrange/errs"
)

func TestTableAddAssignsDenseHandles(t *testing.T) {
	tbl := NewTable(4)

	s0, err := tbl.Add(func(h Handle) Socket { return NewTCP(h, 64) })
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	s1, err := tbl.Add(func(h Handle) Socket { return NewTCP(h, 64) })
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if s0.Handle() != 0 || s1.Handle() != 1 {
		t.Fatalf("handles = %v, %v, want 0, 1", s0.Handle(), s1.Handle())
	}
}

func TestTableAddFullReturnsSocketSetFull(t *testing.T) {
	tbl := NewTable(1)
	if _, err := tbl.Add(func(h Handle) Socket { return NewTCP(h, 64) }); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := tbl.Add(func(h Handle) Socket { return NewTCP(h, 64) }); err != errs.SocketSetFull {
		t.Fatalf("err = %v, want errs.SocketSetFull", err)
	}
}

func TestTableReusesFreedHandle(t *testing.T) {
	tbl := NewTable(2)
	s0, _ := tbl.Add(func(h Handle) Socket { return NewTCP(h, 64) })
	tbl.Remove(s0.Handle())

	s1, err := tbl.Add(func(h Handle) Socket { return NewTCP(h, 64) })
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s1.Handle() != s0.Handle() {
		t.Fatalf("handle = %v, want reuse of %v", s1.Handle(), s0.Handle())
	}
}

func TestTableRecycleReclaimsTimedOutSockets(t *testing.T) {
	tbl := NewTable(1)
	s, _ := tbl.Add(func(h Handle) Socket {
		tcp := NewTCP(h, 64)
		tcp.SetReadTimeout(time.Millisecond)
		return tcp
	})

	tcp := s.(*TCP)
	closedAt := time.Now().Add(-time.Second)
	tcp.ClosedByRemote(closedAt)

	if !tbl.Recycle(time.Now()) {
		t.Fatal("expected Recycle to free the timed-out socket")
	}
	if _, err := tbl.Get(s.Handle()); err == nil {
		t.Fatal("expected the socket to be gone after recycle")
	}
}

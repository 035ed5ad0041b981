// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package socket

import (
	"testing"
	"time"

	"github.com/usbarmory/ublox-shortrange/netaddr"
)

func zeroAddr() netaddr.SocketAddr {
	return netaddr.Unspecified
}

func TestTCPLifecycle(t *testing.T) {
	tcp := NewTCP(Handle(0), 16)

	if tcp.State() != Created {
		t.Fatalf("initial state = %v, want Created", tcp.State())
	}

	tcp.SetWaitingForConnect(zeroAddr())
	if tcp.State() != WaitingForConnect {
		t.Fatalf("state = %v, want WaitingForConnect", tcp.State())
	}

	tcp.SetConnected()
	if tcp.State() != Connected || !tcp.MayRecv() || !tcp.CanRecv() {
		t.Fatalf("state = %v, want Connected and receivable", tcp.State())
	}

	tcp.RxEnqueue([]byte("hi"))
	buf := make([]byte, 16)
	n, err := tcp.RecvSlice(buf)
	if err != nil || string(buf[:n]) != "hi" {
		t.Fatalf("RecvSlice = (%q, %v), want (\"hi\", nil)", buf[:n], err)
	}

	tcp.ClosedByRemote(time.Now())
	if tcp.State() != ShutdownForWrite {
		t.Fatalf("state = %v, want ShutdownForWrite", tcp.State())
	}
}

func TestTCPRecyclable(t *testing.T) {
	tcp := NewTCP(Handle(0), 16)
	tcp.SetReadTimeout(10 * time.Millisecond)

	now := time.Now()
	tcp.ClosedByRemote(now)

	if tcp.Recyclable(now) {
		t.Fatal("should not be recyclable immediately after close")
	}
	if !tcp.Recyclable(now.Add(20 * time.Millisecond)) {
		t.Fatal("should be recyclable once the read timeout elapses")
	}
}

func TestTCPRevert(t *testing.T) {
	tcp := NewTCP(Handle(0), 16)
	tcp.SetWaitingForConnect(zeroAddr())
	tcp.Revert()

	if tcp.State() != Created {
		t.Fatalf("state = %v, want Created after Revert", tcp.State())
	}
}

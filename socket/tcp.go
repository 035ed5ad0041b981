// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package socket

import (
	"time"

	"github.com/usbarmory/ublox-shortrange/errs"
	"github.com/usbarmory/ublox-shortrange/netaddr"
	"github.com/usbarmory/ublox-shortrange/ring"
)

// TCPState is the discriminant of a TCP socket's connection state machine.
// The data two of its states carry (the dialed remote address for
// WaitingForConnect, the instant the remote closed the connection for
// ShutdownForWrite) is kept in the TCP struct's remote and closedAt fields.
type TCPState int

const (
	// Created is the state of a freshly opened, unsullied socket.
	Created TCPState = iota
	// WaitingForConnect means a ConnectPeer command succeeded and the
	// socket awaits the ConnectEvent URC naming its channel id.
	WaitingForConnect
	// Connected means the socket has a live data channel.
	Connected
	// ShutdownForWrite means the remote closed the connection; the
	// receive buffer may still hold unread data until the socket is
	// explicitly closed or recycled.
	ShutdownForWrite
)

// TCP is a Transmission Control Protocol socket. It may actively connect to
// a remote endpoint; there is no listen/backlog support, matching the
// module's own capabilities.
type TCP struct {
	meta        Meta
	endpoint    netaddr.SocketAddr
	state       TCPState
	remote      netaddr.SocketAddr
	closedAt    time.Time
	rx          *ring.Buffer
	readTimeout time.Duration
}

// NewTCP allocates a TCP socket with the given handle and receive buffer
// capacity.
func NewTCP(handle Handle, rxCapacity int) *TCP {
	return &TCP{
		meta: Meta{Handle: handle},
		rx:   ring.NewBuffer(rxCapacity),
	}
}

// Handle implements Socket.
func (t *TCP) Handle() Handle { return t.meta.Handle }

// Kind implements Socket.
func (t *TCP) Kind() Kind { return KindTCP }

// Meta implements Socket.
func (t *TCP) Meta() *Meta { return &t.meta }

// Endpoint returns the socket's locally known endpoint (the dialed remote
// once connected).
func (t *TCP) Endpoint() netaddr.SocketAddr { return t.endpoint }

// State returns the current TCP connection state.
func (t *TCP) State() TCPState { return t.state }

// SetReadTimeout configures the duration a ShutdownForWrite socket must sit
// idle before recycle() may reclaim it. Zero disables recycling.
func (t *TCP) SetReadTimeout(d time.Duration) { t.readTimeout = d }

// SetWaitingForConnect transitions the socket to WaitingForConnect(remote).
func (t *TCP) SetWaitingForConnect(remote netaddr.SocketAddr) {
	t.remote = remote
	t.endpoint = remote
	t.state = WaitingForConnect
}

// SetConnected transitions the socket to Connected.
func (t *TCP) SetConnected() {
	t.state = Connected
}

// Revert transitions the socket back to Created, used when a connect
// command fails.
func (t *TCP) Revert() {
	t.state = Created
}

// ClosedByRemote transitions the socket to ShutdownForWrite(now), recording
// when the remote close was observed.
func (t *TCP) ClosedByRemote(now time.Time) {
	t.closedAt = now
	t.state = ShutdownForWrite
}

// Recyclable reports whether the socket is a ShutdownForWrite socket whose
// read timeout has elapsed as of now.
func (t *TCP) Recyclable(now time.Time) bool {
	if t.state != ShutdownForWrite || t.readTimeout == 0 {
		return false
	}
	return now.Sub(t.closedAt) >= t.readTimeout
}

// MayRecv reports whether the receive half is open: Connected or
// ShutdownForWrite (draining already-buffered data), or any state with data
// still queued.
func (t *TCP) MayRecv() bool {
	switch t.state {
	case Connected, ShutdownForWrite:
		return true
	default:
		return !t.rx.IsEmpty()
	}
}

// CanRecv reports whether the receive buffer is open and not full.
func (t *TCP) CanRecv() bool {
	return t.MayRecv() && !t.rx.IsFull()
}

// RxEnqueue appends received data-channel bytes to the socket's receive
// buffer and returns the number of bytes actually queued.
func (t *TCP) RxEnqueue(data []byte) int {
	return t.rx.EnqueueSlice(data)
}

// RecvSlice dequeues up to len(buf) bytes of received data into buf.
func (t *TCP) RecvSlice(buf []byte) (int, error) {
	if !t.MayRecv() {
		return 0, errs.Illegal
	}
	return t.rx.DequeueSlice(buf), nil
}

// RecvQueue returns the number of bytes currently queued for receipt.
func (t *TCP) RecvQueue() int {
	return t.rx.Len()
}

// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package socket

import (
	"github.com/usbarmory/ublox-shortrange/errs"
	"github.com/usbarmory/ublox-shortrange/netaddr"
	"github.com/usbarmory/ublox-shortrange/ring"
)

// UDPState is the (much simpler than TCP's) connection state machine for a
// UDP socket: there is no connect phase, only whether the module has an
// active peer handle for it.
type UDPState int

const (
	// UDPClosed is the state of a fresh or torn-down socket.
	UDPClosed UDPState = iota
	// UDPEstablished means the module has an active peer for this
	// socket's remote endpoint.
	UDPEstablished
)

// UDP is a User Datagram Protocol socket: send-to carries the remote
// endpoint explicitly, there is no connect phase.
type UDP struct {
	meta  Meta
	local netaddr.SocketAddr
	state UDPState
	rx    *ring.Buffer
}

// NewUDP allocates a UDP socket with the given handle and receive buffer
// capacity.
func NewUDP(handle Handle, rxCapacity int) *UDP {
	return &UDP{
		meta: Meta{Handle: handle},
		rx:   ring.NewBuffer(rxCapacity),
	}
}

// Handle implements Socket.
func (u *UDP) Handle() Handle { return u.meta.Handle }

// Kind implements Socket.
func (u *UDP) Kind() Kind { return KindUDP }

// Meta implements Socket.
func (u *UDP) Meta() *Meta { return &u.meta }

// Bind records the local/remote endpoint the socket is bound to.
func (u *UDP) Bind(addr netaddr.SocketAddr) {
	u.local = addr
}

// Endpoint returns the bound endpoint.
func (u *UDP) Endpoint() netaddr.SocketAddr { return u.local }

// State returns the current connection state.
func (u *UDP) State() UDPState { return u.state }

// SetEstablished marks the socket as having an active module peer.
func (u *UDP) SetEstablished() { u.state = UDPEstablished }

// Close marks the socket as closed, independent of table removal.
func (u *UDP) Close() { u.state = UDPClosed }

// IsOpen reports whether the socket currently has an active peer.
func (u *UDP) IsOpen() bool { return u.state == UDPEstablished }

// CanRecv reports whether the receive buffer has room.
func (u *UDP) CanRecv() bool { return !u.rx.IsFull() }

// RxEnqueue appends received datagram bytes to the socket's receive buffer.
func (u *UDP) RxEnqueue(data []byte) int {
	return u.rx.EnqueueSlice(data)
}

// RecvSlice dequeues up to len(buf) bytes of received data into buf.
func (u *UDP) RecvSlice(buf []byte) (int, error) {
	if u.rx.IsEmpty() && !u.IsOpen() {
		return 0, errs.SocketClosed
	}
	return u.rx.DequeueSlice(buf), nil
}

// RecvQueue returns the number of bytes currently queued for receipt.
func (u *UDP) RecvQueue() int {
	return u.rx.Len()
}

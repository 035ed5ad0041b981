// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package errs defines the sentinel error kinds shared by every layer of
// the driver, following the teacher's preference for small exported
// sentinel values over ad hoc error structs.
package errs

// Error is a defined string type satisfying the error interface, so
// callers can compare with == or errors.Is.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// Timeout means a bounded wait (startup, EDM entry) expired.
	Timeout Error = "ublox: timeout"
	// InvalidResponse means framing or parsing failed on a response from
	// the module.
	InvalidResponse Error = "ublox: invalid response"
	// Network means a command requiring IP connectivity was issued while
	// the link was down.
	Network Error = "ublox: network down"
	// Unaddressable means a peer URL could not be constructed (no IP, no
	// hostname, or an invalid port).
	Unaddressable Error = "ublox: unaddressable peer"
	// SocketSetFull means the socket table is at capacity with nothing
	// recyclable.
	SocketSetFull Error = "ublox: socket table full"
	// SocketClosed means the operation target is not, or is no longer,
	// connected.
	SocketClosed Error = "ublox: socket closed"
	// Illegal means the API was misused (e.g. called without a running
	// driver).
	Illegal Error = "ublox: illegal operation"
	// NotFound means a handle refers to no live socket.
	NotFound Error = "ublox: not found"
	// Busy means receive was called on a socket with no data available
	// and not configured to block.
	Busy Error = "ublox: busy"
	// Full means a bounded map or table rejected an insert at capacity.
	Full Error = "ublox: capacity exceeded"
)

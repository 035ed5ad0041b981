// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package socket implements the driver-local socket table, the handle
// mappings between the three identifier spaces the module exposes, and the
// TCP/UDP socket state machines layered over EDM data channels.
package socket

// Handle is a driver-local small integer identifying a socket object for
// the lifetime of that object. It is never reused while the object is
// live, and is distinct from PeerHandle and ChannelID so the compiler
// rejects passing one where another is expected.
type Handle int

// PeerHandle is assigned by the module when a peer connection is created;
// used in control commands such as close.
type PeerHandle int

// ChannelID is assigned by the module once a peer becomes a data channel;
// used in DataEvent/DataCommand frames.
type ChannelID int

// Invalid is a sentinel handle value that never refers to a live socket.
const Invalid Handle = -1

// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package netaddr supplies the SocketAddr value socket endpoints are
// described with. It is built on gvisor.dev/gvisor/pkg/tcpip, the same
// network-address package the teacher's USB-Ethernet driver and examples
// use for every address it touches, so a socket endpoint here composes
// directly with a gVisor-backed stack running on the other side of the
// module.
package netaddr

import (
	"fmt"
	"net"

	"gvisor.dev/gvisor/pkg/tcpip"
)

// SocketAddr is an IP address plus a port, the module-facing equivalent of
// net.TCPAddr/net.UDPAddr.
type SocketAddr struct {
	Addr tcpip.Address
	Port uint16
}

// FromIP builds a SocketAddr from a standard library net.IP and port.
func FromIP(ip net.IP, port uint16) SocketAddr {
	if v4 := ip.To4(); v4 != nil {
		return SocketAddr{Addr: tcpip.Address(v4), Port: port}
	}
	return SocketAddr{Addr: tcpip.Address(ip.To16()), Port: port}
}

// FullAddress adapts SocketAddr to gvisor's tcpip.FullAddress for the given
// NIC, for callers bridging into a gVisor stack.
func (s SocketAddr) FullAddress(nic tcpip.NICID) tcpip.FullAddress {
	return tcpip.FullAddress{Addr: s.Addr, Port: s.Port, NIC: nic}
}

// IP renders the address as a standard library net.IP.
func (s SocketAddr) IP() net.IP {
	return net.IP(s.Addr)
}

// IsUnspecified reports whether the address is the zero/unspecified
// address (used by the Wi-Fi state machine to decide whether an interface
// is actually IP-up).
func (s SocketAddr) IsUnspecified() bool {
	if len(s.Addr) == 0 {
		return true
	}
	for _, b := range s.Addr {
		if b != 0 {
			return false
		}
	}
	return true
}

// String renders "host:port".
func (s SocketAddr) String() string {
	return fmt.Sprintf("%s:%d", s.IP(), s.Port)
}

// Unspecified is the zero-value SocketAddr, matching a fresh socket's
// initial endpoint before connect()/bind().
var Unspecified = SocketAddr{}

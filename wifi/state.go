// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package wifi implements the Wi-Fi link state machine: link up/down,
// network IP-up, and activation status, grounded on
// ublox-short-range/src/wifi/connection.rs and the transitions coded
// directly into the connection runner's event loop.
package wifi

// State is the link-layer state of the station interface.
type State int

const (
	// Inactive means the radio is powered off or its configuration has
	// been deactivated.
	Inactive State = iota
	// NotConnected means the station is activated and searching.
	NotConnected
	// Connected means the link layer is up (associated to an AP).
	Connected
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case NotConnected:
		return "not-connected"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// DisconnectReason classifies a WifiLinkDisconnected URC.
type DisconnectReason int

const (
	ReasonUnknown DisconnectReason = iota
	ReasonNetworkDisabled
	ReasonSecurityProblems
	ReasonAPDisconnected
)

// Network describes the access point a station is (or was) associated
// with. Supplementing spec.md's bare BSSID/channel pair with the fuller
// descriptor the original's WifiNetwork carries (SSID/RSSI/auth/mode),
// since the station-connect command sequence needs to remember what it
// asked for.
type Network struct {
	SSID      string
	BSSID     string
	Channel   uint8
	RSSI      int8
	Mode      Mode
	Auth      Authentication
}

// Mode distinguishes station from access-point operation. This driver only
// drives station mode; AP mode is out of scope (spec.md Non-goals).
type Mode int

const (
	ModeStation Mode = iota
	ModeAccessPoint
)

// Authentication mirrors the module's WPA/WPA2/open authentication suite
// selection used when building the station-connect command sequence.
type Authentication int

const (
	AuthOpen Authentication = iota
	AuthWPAWPA2PSK
)

// NewStationNetwork synthesizes a descriptor from a WifiLinkConnected URC,
// used when no descriptor exists yet (the runner observed a connection it
// did not itself initiate).
func NewStationNetwork(bssid string, channel uint8) Network {
	return Network{BSSID: bssid, Channel: channel, Mode: ModeStation}
}

// Connection is the mutable Wi-Fi connection descriptor: state plus the
// network currently (or most recently) associated with, plus the
// IP-layer-up flag the network-status refresh maintains independently of
// link state.
type Connection struct {
	State      State
	Network    Network
	NetworkUp  bool
	Priority   uint8
}

// NewConnection creates a descriptor for a network the runner is about to
// (or has just) associated with.
func NewConnection(network Network, state State, priority uint8) *Connection {
	return &Connection{Network: network, State: state, Priority: priority}
}

// Activate transitions Inactive -> NotConnected, the effect of calling
// activate() or an explicit connect.
func (c *Connection) Activate() *Connection {
	if c.State == Inactive {
		c.State = NotConnected
	}
	return c
}

// LinkConnected applies a WifiLinkConnected URC: NotConnected -> Connected,
// recording BSSID and channel.
func (c *Connection) LinkConnected(bssid string, channel uint8) {
	c.State = Connected
	c.Network.BSSID = bssid
	c.Network.Channel = channel
}

// LinkDisconnected applies a WifiLinkDisconnected URC per spec.md §4.6:
// NetworkDisabled drops to Inactive, SecurityProblems is a fatal condition
// the caller must surface but otherwise leaves state untouched, anything
// else drops to NotConnected.
func (c *Connection) LinkDisconnected(reason DisconnectReason) (fatal bool) {
	switch reason {
	case ReasonNetworkDisabled:
		c.State = Inactive
	case ReasonSecurityProblems:
		fatal = true
	default:
		c.State = NotConnected
	}
	return fatal
}

// LinkUp is the observable "link up" predicate: link-layer Connected AND
// the IP layer reports up.
func (c *Connection) LinkUp() bool {
	return c.State == Connected && c.NetworkUp
}

// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package urc parses the events the connection runner consumes off the
// EDM digester's URC channel: the textual ATEvent-wrapped events
// (+UUWLE/+UUWLD/+UUDPC/+UUDPD/+UUNU/+UUND) and the binary
// ConnectEvent/DisconnectEvent/DataEvent channel frames, grounded on
// command/wifi/urc.rs, command/data_mode/urc.rs and the EdmEvent dispatch
// in asynch/runner.rs.
package urc

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/usbarmory/ublox-shortrange/edm"
	"github.com/usbarmory/ublox-shortrange/errs"
)

// Kind classifies a parsed event.
type Kind int

const (
	KindUnknown Kind = iota
	KindStartUp
	KindWifiLinkConnected
	KindWifiLinkDisconnected
	KindNetworkUp
	KindNetworkDown
	KindPeerConnected
	KindPeerDisconnected
	KindConnectEvent
	KindDisconnectEvent
	KindDataEvent
)

// Event is the parsed form of a single URC frame. Only the fields relevant
// to Kind are populated.
type Event struct {
	Kind Kind

	// WifiLinkConnected / WifiLinkDisconnected
	BSSID     string
	Channel   uint8
	Reason    int

	// NetworkUp / NetworkDown
	InterfaceID int

	// PeerConnected / PeerDisconnected (+UUDPC/+UUDPD): the module peer
	// handle, textual local/remote addressing as reported by the module.
	PeerHandle   int
	LocalAddr    string
	LocalPort    uint16
	RemoteAddr   string
	RemotePort   uint16

	// ConnectEvent / DisconnectEvent / DataEvent (binary EDM frames):
	// the EDM channel id, and for DataEvent the payload bytes (aliasing
	// the frame; copy before the next Digest call).
	ChannelID byte
	Data      []byte
}

// Parse classifies a raw frame taken from the URC channel. frame is either
// the literal startup banner (not EDM-wrapped) or a complete EDM frame.
func Parse(frame []byte) (Event, error) {
	if bytes.Equal(frame, edm.StartupMessage) {
		return Event{Kind: KindStartUp}, nil
	}

	if len(frame) < edm.Overhead+1 || frame[0] != edm.StartByte {
		return Event{}, errs.InvalidResponse
	}

	switch edm.TypeFromByte(frame[edm.PayloadPosition]) {
	case edm.TypeATEvent:
		text, err := edm.DecodeATEvent(frame)
		if err != nil {
			return Event{}, err
		}
		return parseATEvent(text)

	case edm.TypeConnectEvent:
		return parseConnectEvent(frame)

	case edm.TypeDisconnectEvent:
		return parseDisconnectEvent(frame)

	case edm.TypeDataEvent:
		return parseDataEvent(frame)

	default:
		return Event{Kind: KindUnknown}, nil
	}
}

// parseATEvent dispatches on the textual URC name prefix, tolerant of a
// leading "\r\n" and trailing "\r\n" the EDM layer does not strip.
func parseATEvent(text []byte) (Event, error) {
	line := strings.TrimSpace(string(text))

	switch {
	case strings.HasPrefix(line, "+UUWLE:"):
		return parseWifiLinkConnected(line)
	case strings.HasPrefix(line, "+UUWLD:"):
		return parseWifiLinkDisconnected(line)
	case strings.HasPrefix(line, "+UUNU:"):
		return parseNetworkUpDown(line, KindNetworkUp, "+UUNU:")
	case strings.HasPrefix(line, "+UUND:"):
		return parseNetworkUpDown(line, KindNetworkDown, "+UUND:")
	case strings.HasPrefix(line, "+UUDPC:"):
		return parsePeerConnected(line)
	case strings.HasPrefix(line, "+UUDPD:"):
		return parsePeerDisconnected(line)
	default:
		return Event{Kind: KindUnknown}, nil
	}
}

func fields(line, prefix string) []string {
	rest := strings.TrimPrefix(line, prefix)
	parts := strings.Split(rest, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseWifiLinkConnected parses "+UUWLE: <connection_id>,<bssid>,<channel>".
// connection_id is the module's Wi-Fi configuration slot, not a handle this
// driver tracks; it is discarded.
func parseWifiLinkConnected(line string) (Event, error) {
	parts := fields(line, "+UUWLE:")
	if len(parts) < 3 {
		return Event{}, errs.InvalidResponse
	}

	ch, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return Event{}, errs.InvalidResponse
	}

	return Event{Kind: KindWifiLinkConnected, BSSID: parts[1], Channel: uint8(ch)}, nil
}

// parseWifiLinkDisconnected parses "+UUWLD: <connection_id>,<reason>".
func parseWifiLinkDisconnected(line string) (Event, error) {
	parts := fields(line, "+UUWLD:")
	if len(parts) < 2 {
		return Event{}, errs.InvalidResponse
	}

	reason, err := strconv.Atoi(parts[1])
	if err != nil {
		return Event{}, errs.InvalidResponse
	}

	return Event{Kind: KindWifiLinkDisconnected, Reason: reason}, nil
}

// parseNetworkUpDown parses "+UUNU: <interface_id>" / "+UUND: <interface_id>".
func parseNetworkUpDown(line string, kind Kind, prefix string) (Event, error) {
	parts := fields(line, prefix)
	if len(parts) < 1 {
		return Event{}, errs.InvalidResponse
	}

	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return Event{}, errs.InvalidResponse
	}

	return Event{Kind: kind, InterfaceID: id}, nil
}

// parsePeerConnected parses "+UUDPC: <handle>,<type>,<protocol>,<local_addr>,
// <local_port>,<remote_addr>,<remote_port>".
func parsePeerConnected(line string) (Event, error) {
	parts := fields(line, "+UUDPC:")
	if len(parts) < 7 {
		return Event{}, errs.InvalidResponse
	}

	handle, err := strconv.Atoi(parts[0])
	if err != nil {
		return Event{}, errs.InvalidResponse
	}
	localPort, err := strconv.ParseUint(parts[4], 10, 16)
	if err != nil {
		return Event{}, errs.InvalidResponse
	}
	remotePort, err := strconv.ParseUint(parts[6], 10, 16)
	if err != nil {
		return Event{}, errs.InvalidResponse
	}

	return Event{
		Kind:       KindPeerConnected,
		PeerHandle: handle,
		LocalAddr:  strings.Trim(parts[3], `"`),
		LocalPort:  uint16(localPort),
		RemoteAddr: strings.Trim(parts[5], `"`),
		RemotePort: uint16(remotePort),
	}, nil
}

// parsePeerDisconnected parses "+UUDPD: <handle>".
func parsePeerDisconnected(line string) (Event, error) {
	parts := fields(line, "+UUDPD:")
	if len(parts) < 1 {
		return Event{}, errs.InvalidResponse
	}

	handle, err := strconv.Atoi(parts[0])
	if err != nil {
		return Event{}, errs.InvalidResponse
	}

	return Event{Kind: KindPeerDisconnected, PeerHandle: handle}, nil
}

// Binary EDM channel events (ConnectEvent/DisconnectEvent/DataEvent) carry
// the EDM channel id as the first payload byte. ConnectEvent's remaining
// layout (protocol, local/remote address and port) is not specified
// byte-for-byte anywhere in the retrieved material; it is modeled here on
// the +UUDPC field set it supersedes once a peer becomes a data channel.
const (
	connectEventMinLen = 1 + 1 + 4 + 2 + 4 + 2 // channel, protocol, local ip/port, remote ip/port
)

func parseConnectEvent(frame []byte) (Event, error) {
	payloadLen := edm.CalcPayloadLen(frame)
	payload := frame[edm.ATCommandPosition : edm.PayloadPosition+payloadLen-1]
	if len(payload) < connectEventMinLen {
		return Event{}, errs.InvalidResponse
	}

	return Event{
		Kind:      KindConnectEvent,
		ChannelID: payload[0],
	}, nil
}

func parseDisconnectEvent(frame []byte) (Event, error) {
	payloadLen := edm.CalcPayloadLen(frame)
	payload := frame[edm.ATCommandPosition : edm.PayloadPosition+payloadLen-1]
	if len(payload) < 1 {
		return Event{}, errs.InvalidResponse
	}

	return Event{Kind: KindDisconnectEvent, ChannelID: payload[0]}, nil
}

func parseDataEvent(frame []byte) (Event, error) {
	payloadLen := edm.CalcPayloadLen(frame)
	// PayloadPosition+payloadLen is the frame's total length (it includes
	// the trailing END byte), so trim one byte off the end before taking
	// the payload, or Data would carry a spurious trailing 0x55.
	payload := frame[edm.ATCommandPosition : edm.PayloadPosition+payloadLen-1]
	if len(payload) < 1 {
		return Event{}, errs.InvalidResponse
	}

	return Event{Kind: KindDataEvent, ChannelID: payload[0], Data: payload[1:]}, nil
}

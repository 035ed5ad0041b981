// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package urc

import (
	"testing"

	"github.com/usbarmory/ublox-shortrange/edm"
)

func atEventFrame(text string) []byte {
	payload := []byte(text)
	payloadLen := len(payload) + 2

	frame := make([]byte, 0, payloadLen+edm.Overhead)
	frame = append(frame, edm.StartByte, byte(payloadLen>>8)&edm.SizeFilter, byte(payloadLen), 0x00, byte(edm.TypeATEvent))
	frame = append(frame, payload...)
	frame = append(frame, edm.EndByte)

	return frame
}

func TestParseStartUp(t *testing.T) {
	event, err := Parse(edm.StartupMessage)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.Kind != KindStartUp {
		t.Fatalf("kind = %v, want KindStartUp", event.Kind)
	}
}

func TestParseWifiLinkConnected(t *testing.T) {
	event, err := Parse(atEventFrame("\r\n+UUWLE:0,112233445566,6\r\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.Kind != KindWifiLinkConnected {
		t.Fatalf("kind = %v, want KindWifiLinkConnected", event.Kind)
	}
	if event.BSSID != "112233445566" || event.Channel != 6 {
		t.Fatalf("event = %+v, want bssid=112233445566 channel=6", event)
	}
}

func TestParseWifiLinkDisconnected(t *testing.T) {
	event, err := Parse(atEventFrame("\r\n+UUWLD:0,8\r\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.Kind != KindWifiLinkDisconnected || event.Reason != 8 {
		t.Fatalf("event = %+v, want KindWifiLinkDisconnected reason=8", event)
	}
}

func TestParsePeerConnected(t *testing.T) {
	event, err := Parse(atEventFrame("\r\n+UUDPC:1,1,0,\"192.168.1.1\",5000,\"192.168.1.2\",6000\r\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.Kind != KindPeerConnected {
		t.Fatalf("kind = %v, want KindPeerConnected", event.Kind)
	}
	if event.PeerHandle != 1 || event.LocalAddr != "192.168.1.1" || event.LocalPort != 5000 ||
		event.RemoteAddr != "192.168.1.2" || event.RemotePort != 6000 {
		t.Fatalf("event = %+v", event)
	}
}

func TestParsePeerDisconnectedScenario4(t *testing.T) {
	// Exact byte sequence: AA 00 0E 00 41 0D 0A 2B 55 55 44 50 44 3A 33 0D 0A 55
	frame := []byte{
		0xAA, 0x00, 0x0E, 0x00, 0x41,
		0x0D, 0x0A, 0x2B, 0x55, 0x55, 0x44, 0x50, 0x44, 0x3A, 0x33, 0x0D, 0x0A,
		0x55,
	}

	event, err := Parse(frame)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.Kind != KindPeerDisconnected {
		t.Fatalf("kind = %v, want KindPeerDisconnected", event.Kind)
	}
	if event.PeerHandle != 3 {
		t.Fatalf("peer handle = %d, want 3", event.PeerHandle)
	}
}

func TestParseUnknownATEvent(t *testing.T) {
	event, err := Parse(atEventFrame("\r\n+UNKNOWN:1\r\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.Kind != KindUnknown {
		t.Fatalf("kind = %v, want KindUnknown", event.Kind)
	}
}

func TestParseRejectsTruncatedFrame(t *testing.T) {
	if _, err := Parse([]byte{edm.StartByte, 0x00}); err == nil {
		t.Fatal("expected an error for a truncated frame")
	}
}

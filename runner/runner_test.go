// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package runner

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/usbarmory/ublox-shortrange/client"
	"github.com/usbarmory/ublox-shortrange/edm"
	"github.com/usbarmory/ublox-shortrange/wifi"
)

// fakePort is a channel-backed transport.Port driven by a scripted module
// simulator goroutine.
type fakePort struct {
	writes chan []byte
	rx     chan []byte
}

func newFakePort() *fakePort {
	return &fakePort{writes: make(chan []byte, 16), rx: make(chan []byte, 16)}
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.writes <- append([]byte(nil), p...)
	return len(p), nil
}

func (f *fakePort) Read(buf []byte) (int, error) {
	chunk := <-f.rx
	return copy(buf, chunk), nil
}

type fakeReset struct {
	transitions []bool
}

func (r *fakeReset) SetLow()  { r.transitions = append(r.transitions, false) }
func (r *fakeReset) SetHigh() { r.transitions = append(r.transitions, true) }

func buildATConfirmation(text string) []byte {
	payload := []byte(text)
	payloadLen := len(payload) + 2

	frame := make([]byte, 0, payloadLen+edm.Overhead)
	frame = append(frame, edm.StartByte, byte(payloadLen>>8)&edm.SizeFilter, byte(payloadLen), 0x00, byte(edm.TypeATConfirmation))
	frame = append(frame, payload...)
	frame = append(frame, edm.EndByte)

	return frame
}

func atCommandText(frame []byte) string {
	if len(frame) < edm.Overhead+1 || edm.Type(frame[edm.PayloadPosition]) != edm.TypeATRequest {
		return ""
	}
	payloadLen := edm.CalcPayloadLen(frame)
	return string(frame[edm.ATCommandPosition : edm.PayloadPosition+payloadLen])
}

// simulateInit drives a fake module through the reset/EDM-entry/init
// sequence Init performs, replying to each request as it arrives.
func simulateInit(t *testing.T, port *fakePort, reset *fakeReset) {
	t.Helper()

	go func() {
		// Reset() waits for the startup banner once the reset line goes
		// high again.
		for {
			if len(reset.transitions) >= 2 && reset.transitions[len(reset.transitions)-1] {
				break
			}
			time.Sleep(time.Millisecond)
		}
		port.rx <- edm.StartupMessage

		for {
			req := <-port.writes
			if bytes.Equal(req, []byte(edm.SwitchToEdmText)) {
				port.rx <- edm.SwitchToEdmConfirmation
				break
			}
		}

		for {
			req := <-port.writes
			text := atCommandText(req)

			switch {
			case strings.HasPrefix(text, "ATE"):
				port.rx <- buildATConfirmation("\r\nOK\r\n")
			case strings.HasPrefix(text, "AT+UMRS"):
				port.rx <- buildATConfirmation("\r\nOK\r\n")
			case strings.HasPrefix(text, "AT&W0"):
				port.rx <- buildATConfirmation("\r\nOK\r\n")
			case strings.HasPrefix(text, "AT+CPWROFF"):
				port.rx <- buildATConfirmation("\r\nOK\r\n")
				port.rx <- edm.StartupMessage

				for {
					req := <-port.writes
					if bytes.Equal(req, []byte(edm.SwitchToEdmText)) {
						port.rx <- edm.SwitchToEdmConfirmation
						break
					}
				}
			case strings.HasPrefix(text, "AT+GMR"):
				port.rx <- buildATConfirmation("\r\n+GMR: 1.0.0\r\n\r\nOK\r\n")
				return
			default:
				port.rx <- buildATConfirmation("\r\nOK\r\n")
			}
		}
	}()
}

func TestInitSequence(t *testing.T) {
	port := newFakePort()
	reset := &fakeReset{}

	c := client.New(port, 1024, 8, slog.Default())
	defer c.Close()

	r := New(c, reset, &wifi.LinkRegister{}, slog.Default())

	simulateInit(t, port, reset)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Init hard-resets once; the second restart is a soft reboot command.
	if len(reset.transitions) != 2 || reset.transitions[0] || !reset.transitions[1] {
		t.Fatalf("expected exactly one reset cycle (low,high), got %v", reset.transitions)
	}
}

func TestDispatchWifiLinkConnectedUpdatesLink(t *testing.T) {
	port := newFakePort()
	link := &wifi.LinkRegister{}

	c := client.New(port, 1024, 8, slog.Default())
	defer c.Close()

	r := New(c, &fakeReset{}, link, slog.Default())

	frame := atEventFrame("\r\n+UUWLE:0,112233445566,6\r\n")
	r.dispatch(context.Background(), frame)

	if r.Connection() == nil {
		t.Fatal("expected a connection descriptor after WifiLinkConnected")
	}
	if r.Connection().State != wifi.Connected {
		t.Fatalf("state = %v, want Connected", r.Connection().State)
	}
	// link stays down until a network-status refresh observes NetworkUp.
	if link.Get() {
		t.Fatal("link should not be up before the IP layer is confirmed")
	}
}

func atEventFrame(text string) []byte {
	payload := []byte(text)
	payloadLen := len(payload) + 2

	frame := make([]byte, 0, payloadLen+edm.Overhead)
	frame = append(frame, edm.StartByte, byte(payloadLen>>8)&edm.SizeFilter, byte(payloadLen), 0x00, byte(edm.TypeATEvent))
	frame = append(frame, payload...)
	frame = append(frame, edm.EndByte)

	return frame
}

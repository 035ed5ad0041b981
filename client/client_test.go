// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package client

import (
	"context"
	"testing"
	"time"

	"github.com/usbarmory/ublox-shortrange/edm"
)

// fakePort is a channel-backed transport.Port: Write records frames for the
// test to inspect, Read blocks until the test pushes a reply.
type fakePort struct {
	writes chan []byte
	rx     chan []byte
}

func newFakePort() *fakePort {
	return &fakePort{writes: make(chan []byte, 8), rx: make(chan []byte, 8)}
}

func (f *fakePort) Write(p []byte) (int, error) {
	cp := append([]byte(nil), p...)
	f.writes <- cp
	return len(p), nil
}

func (f *fakePort) Read(buf []byte) (int, error) {
	chunk := <-f.rx
	return copy(buf, chunk), nil
}

func buildConfirmation(text string) []byte {
	payload := []byte(text)
	payloadLen := len(payload) + 2

	frame := make([]byte, 0, payloadLen+edm.Overhead)
	frame = append(frame, edm.StartByte, byte(payloadLen>>8)&edm.SizeFilter, byte(payloadLen), 0x00, byte(edm.TypeATConfirmation))
	frame = append(frame, payload...)
	frame = append(frame, edm.EndByte)

	return frame
}

func TestSendEDMRoundtrip(t *testing.T) {
	port := newFakePort()
	c := New(port, 256, 4, nil)
	defer c.Close()

	go func() {
		<-port.writes
		port.rx <- buildConfirmation("+GMR: 1.0.0\r\n")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := c.SendEDM(ctx, "AT+GMR\r\n")
	if err != nil {
		t.Fatalf("SendEDM: %v", err)
	}
	if string(resp) != "+GMR: 1.0.0\r\n" {
		t.Fatalf("resp = %q", resp)
	}
}

func TestSendEDMErrorResponse(t *testing.T) {
	port := newFakePort()
	c := New(port, 256, 4, nil)
	defer c.Close()

	go func() {
		<-port.writes
		port.rx <- buildConfirmation("\r\nERROR\r\n")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := c.SendEDM(ctx, "AT+BOGUS\r\n"); err == nil {
		t.Fatal("expected an error for an ERROR confirmation")
	}
}

func TestURCsChannelReceivesUnsolicitedFrames(t *testing.T) {
	port := newFakePort()
	c := New(port, 256, 4, nil)
	defer c.Close()

	port.rx <- edm.StartupMessage

	select {
	case frame := <-c.URCs():
		if string(frame) != string(edm.StartupMessage) {
			t.Fatalf("frame = %q", frame)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the startup URC")
	}
}

func TestSendEDMContextCancellation(t *testing.T) {
	port := newFakePort()
	c := New(port, 256, 4, nil)
	defer c.Close()

	go func() { <-port.writes }() // swallow the write, never reply

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := c.SendEDM(ctx, "AT+GMR\r\n"); err == nil {
		t.Fatal("expected a timeout error")
	}
}

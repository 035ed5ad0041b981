// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package socket

import "testing"

func TestUDPLifecycle(t *testing.T) {
	udp := NewUDP(Handle(0), 16)

	if udp.IsOpen() {
		t.Fatal("fresh socket should not be open")
	}

	udp.SetEstablished()
	if !udp.IsOpen() {
		t.Fatal("expected IsOpen after SetEstablished")
	}

	udp.RxEnqueue([]byte("datagram"))
	buf := make([]byte, 16)
	n, err := udp.RecvSlice(buf)
	if err != nil || string(buf[:n]) != "datagram" {
		t.Fatalf("RecvSlice = (%q, %v)", buf[:n], err)
	}

	udp.Close()
	if udp.IsOpen() {
		t.Fatal("expected IsOpen to be false after Close")
	}
	if _, err := udp.RecvSlice(buf); err == nil {
		t.Fatal("expected an error receiving on a closed, drained socket")
	}
}

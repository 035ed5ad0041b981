// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package wifi

import "testing"

func TestConnectionActivate(t *testing.T) {
	c := NewConnection(Network{SSID: "test"}, Inactive, 1)

	c.Activate()
	if c.State != NotConnected {
		t.Fatalf("state = %v, want NotConnected", c.State)
	}
}

func TestLinkConnectedThenNetworkUp(t *testing.T) {
	c := NewConnection(Network{SSID: "test"}, NotConnected, 1)

	c.LinkConnected("aabbccddeeff", 6)
	if c.LinkUp() {
		t.Fatal("LinkUp should be false before the IP layer confirms up")
	}

	c.NetworkUp = true
	if !c.LinkUp() {
		t.Fatal("LinkUp should be true once link and network are both up")
	}
}

func TestLinkDisconnectedReasons(t *testing.T) {
	c := NewConnection(Network{}, Connected, 1)
	c.NetworkUp = true

	if fatal := c.LinkDisconnected(ReasonNetworkDisabled); fatal {
		t.Fatal("NetworkDisabled should not be reported fatal")
	}
	if c.State != Inactive {
		t.Fatalf("state = %v, want Inactive", c.State)
	}

	c.State = Connected
	if fatal := c.LinkDisconnected(ReasonSecurityProblems); !fatal {
		t.Fatal("SecurityProblems should be reported fatal")
	}

	c.State = Connected
	if fatal := c.LinkDisconnected(ReasonAPDisconnected); fatal {
		t.Fatal("ReasonAPDisconnected should not be fatal")
	}
	if c.State != NotConnected {
		t.Fatalf("state = %v, want NotConnected", c.State)
	}
}

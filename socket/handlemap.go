// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package socket

import "github.com/usbarmory/ublox-shortrange/errs"

// DefaultHandleMapCapacity matches the target hardware's simultaneous-peer
// budget observed in the original driver. The module itself supports more
// peers than this; raising the cap is a product decision left to Config
// (see SPEC_FULL.md Open Questions).
const DefaultHandleMapCapacity = 4

// HandleMap holds the two small bidirectional mappings between a driver
// Handle and the module-assigned PeerHandle/ChannelID. Both mappings may
// exist independently: a PeerHandle is known right after a connect
// response, a ChannelID only once a later ConnectEvent URC arrives.
type HandleMap struct {
	capacity int
	channels map[ChannelID]Handle
	peers    map[PeerHandle]Handle
}

// NewHandleMap allocates a HandleMap bounded to capacity entries per
// direction.
func NewHandleMap(capacity int) *HandleMap {
	if capacity <= 0 {
		capacity = DefaultHandleMapCapacity
	}
	return &HandleMap{
		capacity: capacity,
		channels: make(map[ChannelID]Handle, capacity),
		peers:    make(map[PeerHandle]Handle, capacity),
	}
}

// InsertChannel records channel -> handle. It returns errs.Full if the
// channel map is already at capacity.
func (m *HandleMap) InsertChannel(channel ChannelID, handle Handle) error {
	if _, ok := m.channels[channel]; !ok && len(m.channels) >= m.capacity {
		return errs.Full
	}
	m.channels[channel] = handle
	return nil
}

// InsertPeer records peer -> handle. It returns errs.Full if the peer map
// is already at capacity.
func (m *HandleMap) InsertPeer(peer PeerHandle, handle Handle) error {
	if _, ok := m.peers[peer]; !ok && len(m.peers) >= m.capacity {
		return errs.Full
	}
	m.peers[peer] = handle
	return nil
}

// RemoveChannel drops the channel -> handle mapping, if any.
func (m *HandleMap) RemoveChannel(channel ChannelID) {
	delete(m.channels, channel)
}

// RemovePeer drops the peer -> handle mapping, if any.
func (m *HandleMap) RemovePeer(peer PeerHandle) {
	delete(m.peers, peer)
}

// HandleForChannel looks up the socket handle owning channel.
func (m *HandleMap) HandleForChannel(channel ChannelID) (Handle, bool) {
	h, ok := m.channels[channel]
	return h, ok
}

// HandleForPeer looks up the socket handle owning peer.
func (m *HandleMap) HandleForPeer(peer PeerHandle) (Handle, bool) {
	h, ok := m.peers[peer]
	return h, ok
}

// ChannelForHandle performs the reverse lookup, scanning the (small, bounded)
// channel map for the entry owned by handle.
func (m *HandleMap) ChannelForHandle(handle Handle) (ChannelID, bool) {
	for ch, h := range m.channels {
		if h == handle {
			return ch, true
		}
	}
	return 0, false
}

// PeerForHandle performs the reverse lookup, scanning the (small, bounded)
// peer map for the entry owned by handle.
func (m *HandleMap) PeerForHandle(handle Handle) (PeerHandle, bool) {
	for p, h := range m.peers {
		if h == handle {
			return p, true
		}
	}
	return 0, false
}

// RemoveHandle drops every mapping (channel and peer) owned by handle, used
// when a socket is destroyed.
func (m *HandleMap) RemoveHandle(handle Handle) {
	if ch, ok := m.ChannelForHandle(handle); ok {
		delete(m.channels, ch)
	}
	if p, ok := m.PeerForHandle(handle); ok {
		delete(m.peers, p)
	}
}

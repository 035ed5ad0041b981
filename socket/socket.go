// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package socket

// Meta carries the identity fields shared by every socket variant: the
// driver-local handle and (once known) the EDM channel id assigned by the
// module.
type Meta struct {
	Handle    Handle
	ChannelID ChannelID
	hasChan   bool
}

// SetChannelID records the module-assigned channel id.
func (m *Meta) SetChannelID(id ChannelID) {
	m.ChannelID = id
	m.hasChan = true
}

// ClearChannelID forgets the channel id (e.g. on disconnect).
func (m *Meta) ClearChannelID() {
	m.ChannelID = 0
	m.hasChan = false
}

// HasChannelID reports whether a channel id has been learned yet.
func (m *Meta) HasChannelID() bool {
	return m.hasChan
}

// Kind discriminates the two socket variants the table can hold.
type Kind int

const (
	KindTCP Kind = iota
	KindUDP
)

// Socket is the common interface the table manipulates without needing to
// know which variant it holds.
type Socket interface {
	Handle() Handle
	Kind() Kind
	Meta() *Meta
}

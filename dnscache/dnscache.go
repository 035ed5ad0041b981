// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package dnscache implements the bounded reverse-lookup table connect()
// consults before falling back to a literal IP address when building a
// peer URL, grounded on ublox-short-range/src/wifi/dns.rs's
// reverse_lookup table. DNS resolution itself (populating the table) is a
// convenience API out of scope for this driver; callers populate it from
// whatever resolver they have.
package dnscache

import "net"

// DefaultCapacity matches the original's fixed-size table; raising it is a
// product decision in the same spirit as the handle map capacity.
const DefaultCapacity = 8

// Table is a bounded IP->hostname map. Insertion past capacity evicts the
// oldest entry (simple FIFO, since the original's heapless::FnvIndexMap
// has no ordering guarantees beyond "some entry is evicted").
type Table struct {
	capacity int
	order    []string
	entries  map[string]string
}

// New constructs a Table with the given capacity.
func New(capacity int) *Table {
	return &Table{
		capacity: capacity,
		entries:  make(map[string]string, capacity),
	}
}

// Insert records hostname for ip, evicting the oldest entry if the table
// is at capacity.
func (t *Table) Insert(ip net.IP, hostname string) {
	key := ip.String()

	if _, exists := t.entries[key]; !exists && len(t.entries) >= t.capacity {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.entries, oldest)
	}

	if _, exists := t.entries[key]; !exists {
		t.order = append(t.order, key)
	}
	t.entries[key] = hostname
}

// ReverseLookup returns the cached hostname for ip, if any.
func (t *Table) ReverseLookup(ip net.IP) (string, bool) {
	hostname, ok := t.entries[ip.String()]
	return hostname, ok
}

// Remove deletes any cached hostname for ip.
func (t *Table) Remove(ip net.IP) {
	key := ip.String()
	if _, exists := t.entries[key]; !exists {
		return
	}
	delete(t.entries, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Len reports the number of cached entries.
func (t *Table) Len() int {
	return len(t.entries)
}

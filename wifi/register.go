// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package wifi

import "sync/atomic"

// LinkRegister is the shared, lock-free link-state cell the runner
// publishes to on every transition and the socket layer (and external
// observers) read from. Single-writer (the runner), multi-reader.
type LinkRegister struct {
	up atomic.Bool
}

// Set publishes a new link-up value.
func (r *LinkRegister) Set(up bool) {
	r.up.Store(up)
}

// Get reads the current link-up value.
func (r *LinkRegister) Get() bool {
	return r.up.Load()
}

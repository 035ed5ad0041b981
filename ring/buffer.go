// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package ring implements a fixed-capacity byte queue with contiguous-slice
// access, used as the receive buffer for TCP/UDP sockets and as the ingress
// accumulator in front of the EDM digester.
package ring

// Buffer is a fixed-capacity circular queue of bytes. It performs no
// allocation after construction other than the copy GetAllocated returns for
// a window that wraps, and requires no locking: callers that share
// a Buffer across goroutines must synchronize externally.
type Buffer struct {
	data  []byte
	read  int
	write int
	size  int
}

// NewBuffer allocates a Buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Capacity returns the maximum number of bytes the buffer can hold.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// Len returns the number of bytes currently queued.
func (b *Buffer) Len() int {
	return b.size
}

// IsEmpty reports whether the buffer holds no bytes.
func (b *Buffer) IsEmpty() bool {
	return b.size == 0
}

// IsFull reports whether the buffer has no free space.
func (b *Buffer) IsFull() bool {
	return b.size == len(b.data)
}

func (b *Buffer) free() int {
	return len(b.data) - b.size
}

// EnqueueSlice copies as much of src as fits into the buffer and returns the
// number of bytes copied.
func (b *Buffer) EnqueueSlice(src []byte) int {
	n := len(src)
	if f := b.free(); n > f {
		n = f
	}

	for i := 0; i < n; i++ {
		b.data[b.write] = src[i]
		b.write = (b.write + 1) % len(b.data)
	}

	b.size += n

	return n
}

// DequeueSlice copies queued bytes into dst and returns the number of bytes
// copied.
func (b *Buffer) DequeueSlice(dst []byte) int {
	n := 0
	for n < len(dst) && b.size > 0 {
		n += b.DequeueManyWith(func(buf []byte) (int, int) {
			c := copy(dst[n:], buf)
			return c, c
		})
	}
	return n
}

// DequeueManyWith calls f with the largest contiguous readable slice of the
// buffer, then dequeues the number of bytes f reports having consumed. The
// result of f is returned to the caller.
func (b *Buffer) DequeueManyWith(f func(buf []byte) (int, int)) int {
	if b.size == 0 {
		_, r := f(nil)
		return r
	}

	var contiguous []byte
	if b.write > b.read {
		contiguous = b.data[b.read:b.write]
	} else {
		contiguous = b.data[b.read:]
	}

	consumed, result := f(contiguous)
	if consumed > len(contiguous) {
		consumed = len(contiguous)
	}

	b.read = (b.read + consumed) % len(b.data)
	b.size -= consumed

	return result
}

// DequeueManyWithWrapping calls f with both halves of the readable region
// when the queue wraps around the end of the backing array (the second
// argument is nil when it does not), then dequeues the number of bytes f
// reports having consumed.
func (b *Buffer) DequeueManyWithWrapping(f func(a, b []byte) int) int {
	if b.size == 0 {
		return f(nil, nil)
	}

	var a, rest []byte
	if b.write > b.read {
		a = b.data[b.read:b.write]
	} else {
		a = b.data[b.read:]
		rest = b.data[:b.write]
	}

	consumed := f(a, rest)
	if consumed > b.size {
		consumed = b.size
	}

	b.read = (b.read + consumed) % len(b.data)
	b.size -= consumed

	return consumed
}

// GetAllocated returns a peek slice of up to size bytes starting at offset
// into the queued region, without dequeuing anything. The returned slice may
// be shorter than size if fewer bytes are queued, and is a copy when the
// requested window wraps the backing array.
func (b *Buffer) GetAllocated(offset, size int) []byte {
	if offset >= b.size {
		return nil
	}

	if offset+size > b.size {
		size = b.size - offset
	}

	start := (b.read + offset) % len(b.data)

	if start+size <= len(b.data) {
		return b.data[start : start+size]
	}

	out := make([]byte, size)
	n := copy(out, b.data[start:])
	copy(out[n:], b.data[:size-n])

	return out
}

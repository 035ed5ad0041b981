// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package transport declares the hosted seam the runner drives the module
// through: a byte stream and a reset line. It is modeled on the teacher's
// register-level uart.UART Tx/Rx/Read/Write contract
// (soc/nxp/uart/uart.go), generalized from MMIO registers to any
// io.ReadWriter so the same runner code works against a real UART, a pty,
// or a test harness. The physical UART driver and any DMA/interrupt
// plumbing remain out of tree, per spec.md §1.
package transport

import "io"

// Port is the serial byte stream to the module: Write transmits, Read
// returns whatever bytes are currently available (it must not block
// forever; a 0,nil return means "nothing available right now").
type Port interface {
	io.Reader
	io.Writer
}

// ResetPin is the GPIO line wired to the module's reset input, mirroring
// embedded_hal::digital::OutputPin from the original driver.
type ResetPin interface {
	SetLow()
	SetHigh()
}

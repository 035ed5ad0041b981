// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package client implements the AT client seam (C10): it serializes one
// in-flight command at a time against the transport, runs the ingress
// bytes through the EDM digester, and fans frames out to either the
// waiting command caller (FIFO, since only one command is ever in flight)
// or a buffered URC channel the connection runner consumes.
package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/usbarmory/ublox-shortrange/edm"
	"github.com/usbarmory/ublox-shortrange/errs"
	"github.com/usbarmory/ublox-shortrange/ring"
	"github.com/usbarmory/ublox-shortrange/transport"
)

// Client owns the transport and the ingress pump. A single Client instance
// is shared by the connection runner and the socket I/O API; the sendMu
// mutex enforces "one in-flight command at a time", matching spec.md §5's
// "the socket API submits via the same AT client which queues".
type Client struct {
	port transport.Port
	log  *slog.Logger

	ingress *ring.Buffer
	scratch []byte

	urcs chan []byte

	sendMu   sync.Mutex
	response chan edm.Result

	closed chan struct{}
	once   sync.Once
}

// New constructs a Client. ingressBufSize bounds the accumulator buffer
// fronting the digester; urcCapacity bounds the URC channel (a full
// channel means the runner is not keeping up and new URCs are dropped,
// logged at Warn).
func New(port transport.Port, ingressBufSize, urcCapacity int, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		port:     port,
		log:      log,
		ingress:  ring.NewBuffer(ingressBufSize),
		scratch:  make([]byte, 512),
		urcs:     make(chan []byte, urcCapacity),
		response: make(chan edm.Result, 1),
		closed:   make(chan struct{}),
	}

	go c.pump()

	return c
}

// Close stops the ingress pump.
func (c *Client) Close() {
	c.once.Do(func() { close(c.closed) })
}

// URCs returns the channel the connection runner reads unsolicited events
// from.
func (c *Client) URCs() <-chan []byte {
	return c.urcs
}

// pump reads from the transport, accumulates into the ingress buffer, and
// runs the digester to a fixed point on every arrival.
func (c *Client) pump() {
	for {
		select {
		case <-c.closed:
			return
		default:
		}

		n, err := c.port.Read(c.scratch)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}

		c.ingress.EnqueueSlice(c.scratch[:n])
		c.drain()
	}
}

// drain runs Digest against the accumulated ingress bytes until it can
// make no further progress, dispatching each result.
func (c *Client) drain() {
	for {
		var result edm.Result
		var consumed int

		peek := c.ingress.GetAllocated(0, c.ingress.Len())

		result, consumed = edm.Digest(peek)
		if consumed == 0 {
			return
		}

		// result.Frame aliases the ingress ring, which later arrivals
		// overwrite; hand receivers their own copy.
		if result.Frame != nil {
			result.Frame = append([]byte(nil), result.Frame...)
		}

		discard := make([]byte, consumed)
		c.ingress.DequeueSlice(discard)

		switch result.Kind {
		case edm.KindResponse:
			select {
			case c.response <- result:
			default:
				c.log.Warn("dropping unmatched command response")
			}
		case edm.KindURC:
			select {
			case c.urcs <- result.Frame:
			default:
				c.log.Warn("URC channel full, dropping event")
			}
		}

		if c.ingress.IsEmpty() {
			return
		}
	}
}

// SendText writes raw (non-EDM-wrapped) text to the transport and waits
// for the next framed response, used only for SwitchToEdmCommand before
// the module has entered EDM mode.
func (c *Client) SendText(ctx context.Context, text string) ([]byte, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if _, err := c.port.Write([]byte(text)); err != nil {
		return nil, err
	}

	return c.awaitResponse(ctx)
}

// SendEDM wraps atText in an EDM ATRequest frame, writes it, and waits for
// the matching ATConfirmation, returning the unwrapped AT response bytes.
func (c *Client) SendEDM(ctx context.Context, atText string) ([]byte, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	frame := edm.EncodeATRequest([]byte(atText))
	if _, err := c.port.Write(frame); err != nil {
		return nil, err
	}

	resp, err := c.awaitResponse(ctx)
	if err != nil {
		return nil, err
	}

	return edm.DecodeATConfirmation(resp)
}

// SendDataCommand submits a fire-and-forget EDM data-channel frame; the
// module never confirms it, so no response wait is performed.
func (c *Client) SendDataCommand(channel byte, data []byte) error {
	frame := edm.EdmDataCommand{Channel: channel, Data: data}.Encode()
	_, err := c.port.Write(frame)
	return err
}

// SendResendConnectEvents submits the fixed vendor command used to recover
// channel-id mappings for already-open peers after an EDM switch.
func (c *Client) SendResendConnectEvents() error {
	_, err := c.port.Write(edm.ResendConnectEventsFrame)
	return err
}

func (c *Client) awaitResponse(ctx context.Context) ([]byte, error) {
	select {
	case result := <-c.response:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Frame, nil
	case <-ctx.Done():
		return nil, errs.Timeout
	case <-c.closed:
		return nil, errs.Illegal
	}
}

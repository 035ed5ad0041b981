// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package driver assembles the digester, client, runner, socket table and
// handle map into the socket I/O API (C8): DialTCP/Send/Receive/Close and
// their UDP counterparts, grounded on
// ublox-short-range/src/wifi/tcp_stack.rs and src/wifi/udp_stack.rs.
package driver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/usbarmory/ublox-shortrange/atcommand"
	"github.com/usbarmory/ublox-shortrange/client"
	"github.com/usbarmory/ublox-shortrange/dnscache"
	"github.com/usbarmory/ublox-shortrange/edm"
	"github.com/usbarmory/ublox-shortrange/errs"
	"github.com/usbarmory/ublox-shortrange/netaddr"
	"github.com/usbarmory/ublox-shortrange/runner"
	"github.com/usbarmory/ublox-shortrange/socket"
	"github.com/usbarmory/ublox-shortrange/transport"
	"github.com/usbarmory/ublox-shortrange/urc"
	"github.com/usbarmory/ublox-shortrange/wifi"
)

// EgressChunkSize bounds each outbound EdmDataCommand, matching
// src/wifi/socket.rs::EGRESS_CHUNK_SIZE.
const EgressChunkSize = 512

// IngressChunkSize is carried over from the original's AT-mode polling
// transport for parity; EDM mode receives whole data frames from the
// digester rather than polling in fixed chunks, so this constant is not on
// the hot path here (see SPEC_FULL.md §4.8).
const IngressChunkSize = 256

// Config holds the driver-wide tunables, threaded through every component
// the way the teacher threads a single configuration struct through its
// hardware drivers.
type Config struct {
	MaxSockets        int
	URCCapacity       int
	IngressBufSize    int
	RxBufSize         int
	HandleMapCapacity int
	ReadTimeout       time.Duration
	TLSInBufferSize   *int
	TLSOutBufferSize  *int
	Logger            *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxSockets == 0 {
		c.MaxSockets = 8
	}
	if c.URCCapacity == 0 {
		c.URCCapacity = 16
	}
	if c.IngressBufSize == 0 {
		c.IngressBufSize = 4096
	}
	if c.RxBufSize == 0 {
		c.RxBufSize = 2048
	}
	if c.HandleMapCapacity == 0 {
		c.HandleMapCapacity = socket.DefaultHandleMapCapacity
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Driver is the top-level façade an application holds: one per physical
// module.
type Driver struct {
	cfg    Config
	client *client.Client
	runner *runner.Runner
	link   *wifi.LinkRegister
	dns    *dnscache.Table

	mu      sync.Mutex
	table   *socket.Table
	handles *socket.HandleMap

	log *slog.Logger
}

// New constructs a Driver over port/reset but does not start it; call Init
// then run Run(ctx) in a goroutine before dialing any sockets.
func New(port transport.Port, reset transport.ResetPin, cfg Config) *Driver {
	cfg = cfg.withDefaults()

	c := client.New(port, cfg.IngressBufSize, cfg.URCCapacity, cfg.Logger)
	link := &wifi.LinkRegister{}

	return &Driver{
		cfg:     cfg,
		client:  c,
		runner:  runner.New(c, reset, link, cfg.Logger),
		link:    link,
		dns:     dnscache.New(dnscache.DefaultCapacity),
		table:   socket.NewTable(cfg.MaxSockets),
		handles: socket.NewHandleMap(cfg.HandleMapCapacity),
		log:     cfg.Logger,
	}
}

// Init performs module bring-up (reset, EDM entry, baud reconfiguration).
func (d *Driver) Init(ctx context.Context) error {
	return d.runner.Init(ctx)
}

// Run drives the connection runner's URC loop until ctx is cancelled. The
// application is expected to run this in its own goroutine.
func (d *Driver) Run(ctx context.Context) {
	d.runner.Run(ctx)
}

// Close stops the underlying AT client's ingress pump.
func (d *Driver) Close() {
	d.client.Close()
}

// Connect issues the station-activation command sequence; observe
// convergence via LinkUp().
func (d *Driver) Connect(ctx context.Context, opts wifi.ConnectOptions) error {
	return wifi.Connect(ctx, d.client, opts)
}

// LinkUp reports the current observable link predicate.
func (d *Driver) LinkUp() bool {
	return d.link.Get()
}

// DNSCache exposes the reverse-lookup table connect() consults, so callers
// (or a resolver integration) can populate it.
func (d *Driver) DNSCache() *dnscache.Table {
	return d.dns
}

// poll drains any pending URCs and applies the ones relevant to the socket
// layer (data, connect, disconnect, peer events), mirroring the original's
// spin()/self.spin() call on every send/receive/connect operation.
func (d *Driver) poll() {
	for {
		select {
		case frame := <-d.client.URCs():
			d.applySocketEvent(frame)
		default:
			return
		}
	}
}

func (d *Driver) applySocketEvent(frame []byte) {
	event, err := urc.Parse(frame)
	if err != nil {
		d.log.Debug("failed to parse socket urc", "error", err)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch event.Kind {
	case urc.KindConnectEvent:
		// The binary ConnectEvent frame names only the newly assigned
		// channel id, not the peer handle it belongs to, so it is bound
		// to the first socket found with a registered peer handle but
		// no channel yet. Table.Range order is unspecified: with more
		// than one such socket waiting, which one is bound is not
		// defined (see DESIGN.md).
		bound := false
		d.table.Range(func(s socket.Socket) {
			if bound || s.Meta().HasChannelID() {
				return
			}
			if _, ok := d.handles.PeerForHandle(s.Handle()); !ok {
				return
			}
			if err := d.handles.InsertChannel(socket.ChannelID(event.ChannelID), s.Handle()); err != nil {
				d.log.Warn("channel map full, dropping connect event")
				return
			}
			s.Meta().SetChannelID(socket.ChannelID(event.ChannelID))
			bound = true
			if tcp, ok := s.(*socket.TCP); ok {
				tcp.SetConnected()
			} else if u, ok := s.(*socket.UDP); ok {
				u.SetEstablished()
			}
		})

	case urc.KindDisconnectEvent:
		if h, ok := d.handles.HandleForChannel(socket.ChannelID(event.ChannelID)); ok {
			if s, err := d.table.Get(h); err == nil {
				if tcp, ok := s.(*socket.TCP); ok {
					tcp.ClosedByRemote(time.Now())
				} else if u, ok := s.(*socket.UDP); ok {
					u.Close()
				}
			}
			d.handles.RemoveChannel(socket.ChannelID(event.ChannelID))
		}

	case urc.KindDataEvent:
		if h, ok := d.handles.HandleForChannel(socket.ChannelID(event.ChannelID)); ok {
			if s, err := d.table.Get(h); err == nil {
				switch sock := s.(type) {
				case *socket.TCP:
					sock.RxEnqueue(event.Data)
				case *socket.UDP:
					sock.RxEnqueue(event.Data)
				}
			}
		}

	case urc.KindPeerDisconnected:
		if h, ok := d.handles.HandleForPeer(socket.PeerHandle(event.PeerHandle)); ok {
			if s, err := d.table.Get(h); err == nil {
				if tcp, ok := s.(*socket.TCP); ok {
					tcp.ClosedByRemote(time.Now())
				} else if u, ok := s.(*socket.UDP); ok {
					u.Close()
				}
			}
		}
	}
}

// OpenTCP allocates a TCP socket slot, recycling a stale one if the table
// is full.
func (d *Driver) OpenTCP(ctx context.Context) (socket.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.table.Add(func(h socket.Handle) socket.Socket {
		t := socket.NewTCP(h, d.cfg.RxBufSize)
		t.SetReadTimeout(d.cfg.ReadTimeout)
		return t
	})
	if err == errs.SocketSetFull {
		if d.table.Recycle(time.Now()) {
			s, err = d.table.Add(func(h socket.Handle) socket.Socket {
				t := socket.NewTCP(h, d.cfg.RxBufSize)
				t.SetReadTimeout(d.cfg.ReadTimeout)
				return t
			})
		}
	}
	if err != nil {
		return socket.Invalid, err
	}

	return s.Handle(), nil
}

// DialTCP opens a socket and connects it to remote, blocking (by polling
// URC processing) until the module confirms the data channel or the
// command itself fails.
func (d *Driver) DialTCP(ctx context.Context, remote netaddr.SocketAddr) (socket.Handle, error) {
	if !d.link.Get() {
		return socket.Invalid, errs.Network
	}

	handle, err := d.OpenTCP(ctx)
	if err != nil {
		return socket.Invalid, err
	}

	host := remote.IP().String()
	if hostname, ok := d.dns.ReverseLookup(remote.IP()); ok {
		host = hostname
	}
	url := atcommand.BuildPeerURL("tcp", host, remote.Port)

	resp, err := d.client.SendEDM(ctx, atcommand.ConnectPeer(url))
	if err != nil {
		d.revertTCP(handle)
		return socket.Invalid, errs.Unaddressable
	}

	peerHandle, err := atcommand.ParseConnectPeerResponse(resp)
	if err != nil {
		d.revertTCP(handle)
		return socket.Invalid, errs.InvalidResponse
	}

	d.mu.Lock()
	if err := d.handles.InsertPeer(socket.PeerHandle(peerHandle), handle); err != nil {
		d.mu.Unlock()
		d.revertTCP(handle)
		return socket.Invalid, err
	}
	s, _ := d.table.Get(handle)
	tcp := s.(*socket.TCP)
	tcp.SetWaitingForConnect(remote)
	d.mu.Unlock()

	for {
		d.poll()

		d.mu.Lock()
		state := tcp.State()
		d.mu.Unlock()

		if state != socket.WaitingForConnect {
			break
		}

		select {
		case <-ctx.Done():
			return socket.Invalid, errs.Timeout
		case <-time.After(10 * time.Millisecond):
		}
	}

	return handle, nil
}

func (d *Driver) revertTCP(handle socket.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, err := d.table.Get(handle); err == nil {
		if tcp, ok := s.(*socket.TCP); ok {
			tcp.Revert()
		}
	}
}

// IsConnected reports whether handle refers to a live, network-connected
// TCP socket.
func (d *Driver) IsConnected(handle socket.Handle) bool {
	if !d.link.Get() {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.table.Get(handle)
	if err != nil {
		return false
	}
	tcp, ok := s.(*socket.TCP)
	return ok && tcp.State() == socket.Connected
}

// Send writes buf to a connected TCP socket, chunked into EgressChunkSize
// EDM data commands.
func (d *Driver) Send(ctx context.Context, handle socket.Handle, buf []byte) (int, error) {
	if !d.link.Get() {
		return 0, errs.Network
	}

	d.mu.Lock()
	s, err := d.table.Get(handle)
	if err != nil {
		d.mu.Unlock()
		return 0, err
	}
	tcp, ok := s.(*socket.TCP)
	if !ok || tcp.State() != socket.Connected {
		d.mu.Unlock()
		return 0, errs.SocketClosed
	}
	channel, ok := d.handles.ChannelForHandle(handle)
	d.mu.Unlock()
	if !ok {
		return 0, errs.SocketClosed
	}

	for off := 0; off < len(buf); off += EgressChunkSize {
		end := off + EgressChunkSize
		if end > len(buf) {
			end = len(buf)
		}
		if err := d.client.SendDataCommand(byte(channel), buf[off:end]); err != nil {
			return off, err
		}
	}

	return len(buf), nil
}

// Receive drains one URC-processing tick, recycles stale sockets, then
// dequeues whatever is buffered for handle. It never blocks.
func (d *Driver) Receive(handle socket.Handle, buf []byte) (int, error) {
	d.poll()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.table.Recycle(time.Now())

	s, err := d.table.Get(handle)
	if err != nil {
		return 0, err
	}
	switch sock := s.(type) {
	case *socket.TCP:
		return sock.RecvSlice(buf)
	case *socket.UDP:
		return sock.RecvSlice(buf)
	default:
		return 0, errs.Illegal
	}
}

// CloseTCP closes a TCP socket: if it holds a live peer, best-effort
// closes it on the module (an InvalidResponse means the peer is already
// gone, treated as success); otherwise removes the table entry directly.
func (d *Driver) CloseTCP(ctx context.Context, handle socket.Handle) error {
	d.mu.Lock()
	s, err := d.table.Get(handle)
	if err != nil {
		d.mu.Unlock()
		return nil
	}
	tcp, ok := s.(*socket.TCP)
	if !ok {
		d.mu.Unlock()
		return errs.Illegal
	}

	state := tcp.State()
	peer, hasPeer := d.handles.PeerForHandle(handle)
	d.mu.Unlock()

	if state != socket.ShutdownForWrite && state != socket.Created {
		if !hasPeer {
			return errs.Illegal
		}
		_, err := d.client.SendEDM(ctx, atcommand.ClosePeerConnection(int(peer)))
		if err != nil && err != errs.InvalidResponse && err != edm.ErrInvalidResponse {
			return errs.Unaddressable
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handles.RemoveHandle(handle)
	return d.table.Remove(handle)
}

// OpenUDP allocates a UDP socket bound to local.
func (d *Driver) OpenUDP(ctx context.Context, local netaddr.SocketAddr) (socket.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.table.Add(func(h socket.Handle) socket.Socket {
		u := socket.NewUDP(h, d.cfg.RxBufSize)
		u.Bind(local)
		return u
	})
	if err == errs.SocketSetFull {
		if d.table.Recycle(time.Now()) {
			s, err = d.table.Add(func(h socket.Handle) socket.Socket {
				u := socket.NewUDP(h, d.cfg.RxBufSize)
				u.Bind(local)
				return u
			})
		}
	}
	if err != nil {
		return socket.Invalid, err
	}
	return s.Handle(), nil
}

// SendTo establishes (if needed) a peer for remote and submits buf as a
// datagram, chunked like Send.
func (d *Driver) SendTo(ctx context.Context, handle socket.Handle, remote netaddr.SocketAddr, buf []byte) (int, error) {
	if !d.link.Get() {
		return 0, errs.Network
	}

	d.mu.Lock()
	s, err := d.table.Get(handle)
	if err != nil {
		d.mu.Unlock()
		return 0, err
	}
	udp, ok := s.(*socket.UDP)
	if !ok {
		d.mu.Unlock()
		return 0, errs.Illegal
	}
	needsPeer := !udp.IsOpen()
	d.mu.Unlock()

	if needsPeer {
		host := remote.IP().String()
		if hostname, ok := d.dns.ReverseLookup(remote.IP()); ok {
			host = hostname
		}
		url := atcommand.BuildPeerURL("udp", host, remote.Port)

		resp, err := d.client.SendEDM(ctx, atcommand.ConnectPeer(url))
		if err != nil {
			return 0, errs.Unaddressable
		}
		peerHandle, err := atcommand.ParseConnectPeerResponse(resp)
		if err != nil {
			return 0, errs.InvalidResponse
		}

		d.mu.Lock()
		if err := d.handles.InsertPeer(socket.PeerHandle(peerHandle), handle); err != nil {
			d.mu.Unlock()
			return 0, err
		}
		d.mu.Unlock()

		for {
			d.poll()
			d.mu.Lock()
			open := udp.IsOpen()
			d.mu.Unlock()
			if open {
				break
			}
			select {
			case <-ctx.Done():
				return 0, errs.Timeout
			case <-time.After(10 * time.Millisecond):
			}
		}
	}

	d.mu.Lock()
	channel, ok := d.handles.ChannelForHandle(handle)
	d.mu.Unlock()
	if !ok {
		return 0, errs.SocketClosed
	}

	for off := 0; off < len(buf); off += EgressChunkSize {
		end := off + EgressChunkSize
		if end > len(buf) {
			end = len(buf)
		}
		if err := d.client.SendDataCommand(byte(channel), buf[off:end]); err != nil {
			return off, err
		}
	}

	return len(buf), nil
}

// RecvFrom is Receive for UDP sockets; the original endpoint is not
// tracked per-datagram (the module does not report it in the DataEvent
// frame per the modeled layout), so callers rely on the socket's bound
// remote instead.
func (d *Driver) RecvFrom(handle socket.Handle, buf []byte) (int, error) {
	return d.Receive(handle, buf)
}

// CloseUDP tears down a UDP socket locally: it marks the socket closed,
// drops its peer and channel mappings and removes it from the table. It
// sends no ClosePeerConnection and queues none for the runner, so a peer
// the module holds for the socket is left open on the module.
func (d *Driver) CloseUDP(handle socket.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, err := d.table.Get(handle)
	if err != nil {
		return nil
	}
	if udp, ok := s.(*socket.UDP); ok {
		udp.Close()
	}
	d.handles.RemoveHandle(handle)
	return d.table.Remove(handle)
}

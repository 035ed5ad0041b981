// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package runner implements the connection runner (C7): module
// initialization (hard reset, baud configuration, EDM mode entry) and the
// long-lived URC event loop that drives the Wi-Fi state machine, grounded
// on asynch/runner.rs.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/usbarmory/ublox-shortrange/atcommand"
	"github.com/usbarmory/ublox-shortrange/client"
	"github.com/usbarmory/ublox-shortrange/edm"
	"github.com/usbarmory/ublox-shortrange/errs"
	"github.com/usbarmory/ublox-shortrange/transport"
	"github.com/usbarmory/ublox-shortrange/urc"
	"github.com/usbarmory/ublox-shortrange/wifi"
)

const (
	resetHoldDelay   = 100 * time.Millisecond
	startupTimeout   = 4 * time.Second
	restartTimeout   = 10 * time.Second
	edmRetryTick     = 10 * time.Millisecond
	edmEntryTimeout  = 4 * time.Second
	postEdmDelay     = 50 * time.Millisecond

	baudRate = 115200
)

// Runner owns the reset line and URC subscription exclusively. It is
// constructed once per module and driven by calling Init and then Run in a
// long-lived goroutine.
type Runner struct {
	client *client.Client
	reset  transport.ResetPin
	log    *slog.Logger

	link *wifi.LinkRegister
	conn *wifi.Connection

	// NetworkStatusCallback, when non-nil, is invoked with the resolved
	// network_up value after every successful network-status refresh,
	// whether or not the value changed. Optional observer hook.
	NetworkStatusCallback func(up bool)
}

// New constructs a Runner. link is the shared link-state register the
// socket layer reads from.
func New(c *client.Client, reset transport.ResetPin, link *wifi.LinkRegister, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{client: c, reset: reset, log: log, link: link}
}

// Init performs the module bring-up sequence: hard reset, EDM entry, RS232
// reconfiguration, and a soft restart to apply it, per §4.7 step 1.
func (r *Runner) Init(ctx context.Context) error {
	r.log.Info("initializing module")

	if err := r.Reset(ctx); err != nil {
		return err
	}

	if _, err := r.client.SendEDM(ctx, atcommand.SetRS232Settings(baudRate, atcommand.FlowOn, atcommand.ChangeStoreAndReset)); err != nil {
		return err
	}

	if err := r.restart(ctx, true); err != nil {
		return err
	}

	if _, err := r.client.SendEDM(ctx, atcommand.SoftwareVersion()); err != nil {
		return err
	}

	return nil
}

// Reset asserts the reset line, waits for the startup banner, and enters
// EDM mode.
func (r *Runner) Reset(ctx context.Context) error {
	r.log.Warn("hard resetting module")

	r.reset.SetLow()
	time.Sleep(resetHoldDelay)
	r.reset.SetHigh()

	if err := r.waitStartup(ctx, startupTimeout); err != nil {
		return err
	}

	return r.enterEDM(ctx, edmEntryTimeout)
}

// restart stores the current config (if store), reboots, and re-enters
// EDM.
func (r *Runner) restart(ctx context.Context, store bool) error {
	r.log.Warn("soft resetting module")

	if store {
		if _, err := r.client.SendEDM(ctx, atcommand.StoreCurrentConfig()); err != nil {
			return err
		}
	}

	if _, err := r.client.SendEDM(ctx, atcommand.RebootDCE()); err != nil {
		return err
	}

	if err := r.waitStartup(ctx, restartTimeout); err != nil {
		return err
	}

	r.log.Info("module started again")

	return r.enterEDM(ctx, edmEntryTimeout)
}

// waitStartup blocks until a StartUp URC arrives on the client's URC
// channel, or timeout elapses.
func (r *Runner) waitStartup(ctx context.Context, timeout time.Duration) error {
	deadline := time.After(timeout)

	for {
		select {
		case frame := <-r.client.URCs():
			event, err := urc.Parse(frame)
			if err == nil && event.Kind == urc.KindStartUp {
				return nil
			}
		case <-deadline:
			return errs.Timeout
		case <-ctx.Done():
			return errs.Timeout
		}
	}
}

// enterEDM repeatedly sends SwitchToEdmCommand until the module confirms,
// then observes the mandatory 50 ms settle delay and enables echo.
func (r *Runner) enterEDM(ctx context.Context, timeout time.Duration) error {
	r.log.Info("entering EDM mode")

	deadline := time.Now().Add(timeout)

	for {
		resp, err := r.client.SendText(ctx, edm.SwitchToEdmText)
		if err == nil {
			if perr := edm.ParseSwitchToEdmConfirmation(resp); perr == nil {
				break
			}
		}

		if time.Now().After(deadline) {
			return errs.Timeout
		}

		time.Sleep(edmRetryTick)
	}

	time.Sleep(postEdmDelay)

	if _, err := r.client.SendEDM(ctx, atcommand.SetEcho(true)); err != nil {
		return err
	}

	return nil
}

// Run consumes URCs until ctx is cancelled, dispatching Wi-Fi state
// transitions and network-status refreshes. It never returns an error for
// per-URC failures; those are logged and the loop continues, per §4.7
// step 4.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-r.client.URCs():
			r.dispatch(ctx, frame)
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, frame []byte) {
	event, err := urc.Parse(frame)
	if err != nil {
		r.log.Debug("failed to parse urc", "error", err)
		return
	}

	switch event.Kind {
	case urc.KindStartUp:
		r.log.Error("unexpected startup event, device restarted unintentionally")

	case urc.KindWifiLinkConnected:
		if r.conn == nil {
			r.conn = wifi.NewConnection(wifi.NewStationNetwork(event.BSSID, event.Channel), wifi.Connected, 255)
		} else {
			r.conn.LinkConnected(event.BSSID, event.Channel)
		}
		r.refreshLink()

	case urc.KindWifiLinkDisconnected:
		if r.conn != nil {
			if fatal := r.conn.LinkDisconnected(disconnectReason(event.Reason)); fatal {
				r.log.Error("wifi security problem reported")
			}
		}
		r.refreshLink()

	case urc.KindNetworkUp, urc.KindNetworkDown:
		if err := r.networkStatusCallback(ctx, event.InterfaceID); err != nil {
			r.log.Error("network status refresh failed", "error", err)
		}

	case urc.KindConnectEvent, urc.KindDisconnectEvent, urc.KindDataEvent,
		urc.KindPeerConnected, urc.KindPeerDisconnected:
		// Socket-layer events; the socket I/O API drains these by
		// reading the same URC channel via its own processing tick,
		// not the runner. Nothing to do here.

	default:
		r.log.Debug("unhandled urc", "kind", event.Kind)
	}
}

// disconnectReason maps the module's numeric WifiLinkDisconnected reason
// code to a wifi.DisconnectReason. The exact code table is not present in
// the retrieved material; 1 (network disabled by configuration) and 8
// (security handshake failure) are the two codes this driver's original
// source specifically branches on, everything else falls through to the
// default NotConnected transition.
func disconnectReason(code int) wifi.DisconnectReason {
	switch code {
	case 1:
		return wifi.ReasonNetworkDisabled
	case 8:
		return wifi.ReasonSecurityProblems
	default:
		return wifi.ReasonUnknown
	}
}

// networkStatusCallback issues the three status queries §4.7 step 3
// specifies and updates network_up.
func (r *Runner) networkStatusCallback(ctx context.Context, interfaceID int) error {
	ifaceResp, err := r.client.SendEDM(ctx, atcommand.GetNetworkStatus(interfaceID, atcommand.ParamInterfaceType))
	if err != nil {
		return err
	}
	ifaceVal, err := atcommand.ParseNetworkStatusValue(ifaceResp)
	if err != nil {
		return err
	}
	if ifaceVal != atcommand.InterfaceTypeWifiStation {
		return fmt.Errorf("%w: unexpected interface type %q", errs.Network, ifaceVal)
	}

	gwResp, err := r.client.SendEDM(ctx, atcommand.GetNetworkStatus(interfaceID, atcommand.ParamGateway))
	if err != nil {
		return err
	}
	gwVal, err := atcommand.ParseNetworkStatusValue(gwResp)
	if err != nil {
		return err
	}

	ipv6Resp, err := r.client.SendEDM(ctx, atcommand.GetNetworkStatus(interfaceID, atcommand.ParamIPv6LinkLocalAddress))
	if err != nil {
		return err
	}
	ipv6Val, err := atcommand.ParseNetworkStatusValue(ipv6Resp)
	if err != nil {
		return err
	}

	up := isSetNonUnspecified(gwVal) && isSetNonUnspecified(ipv6Val)

	if r.conn != nil {
		r.conn.NetworkUp = up
	}

	r.refreshLink()

	if r.NetworkStatusCallback != nil {
		r.NetworkStatusCallback(up)
	}

	return nil
}

// isSetNonUnspecified reports whether an address string is present and not
// the all-zeros unspecified address (IPv4 "0.0.0.0" or any IPv6 "::"
// rendering).
func isSetNonUnspecified(addr string) bool {
	if addr == "" {
		return false
	}
	if ip := net.ParseIP(addr); ip != nil && ip.IsUnspecified() {
		return false
	}
	return true
}

// refreshLink recomputes the observable link predicate and publishes it.
func (r *Runner) refreshLink() {
	up := r.conn != nil && r.conn.LinkUp()
	r.link.Set(up)
}

// Connection returns the runner's current Wi-Fi connection descriptor, or
// nil if none has been observed yet.
func (r *Runner) Connection() *wifi.Connection {
	return r.conn
}

// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package wifi

import (
	"context"
	"net"

	"github.com/usbarmory/ublox-shortrange/atcommand"
	"github.com/usbarmory/ublox-shortrange/client"
)

const stationConfigID = 0

// ConnectOptions parameterizes the station-connect command sequence,
// grounded on src/wifi/sta.rs::connect's ConnectionOptions. A zero IP
// leaves the module on DHCP.
type ConnectOptions struct {
	SSID     string
	Password string
	IP       net.IP
	Subnet   net.IP
	Gateway  net.IP
}

// Connect issues the station-activation command sequence against c:
// deactivate the station config slot, optionally fix a static IP/subnet/
// gateway, mark the slot active-on-startup, set SSID and (if a password
// was given) WPA2-PSK authentication, then activate. It does not wait for
// the resulting WifiLinkConnected URC; the caller observes that through
// the runner's Connection()/link register.
func Connect(ctx context.Context, c *client.Client, opts ConnectOptions) error {
	if _, err := c.SendEDM(ctx, atcommand.ExecWifiStationAction(stationConfigID, atcommand.ActionDeactivate)); err != nil {
		return err
	}

	if opts.IP != nil || opts.Subnet != nil || opts.Gateway != nil {
		if _, err := c.SendEDM(ctx, atcommand.SetWifiStationConfigInt(stationConfigID, atcommand.TagIPv4Mode, 1)); err != nil {
			return err
		}
	}
	if opts.IP != nil {
		if _, err := c.SendEDM(ctx, atcommand.SetWifiStationConfig(stationConfigID, atcommand.TagIPv4Address, opts.IP.String())); err != nil {
			return err
		}
	}
	if opts.Subnet != nil {
		if _, err := c.SendEDM(ctx, atcommand.SetWifiStationConfig(stationConfigID, atcommand.TagSubnetMask, opts.Subnet.String())); err != nil {
			return err
		}
	}
	if opts.Gateway != nil {
		if _, err := c.SendEDM(ctx, atcommand.SetWifiStationConfig(stationConfigID, atcommand.TagDefaultGateway, opts.Gateway.String())); err != nil {
			return err
		}
	}

	if _, err := c.SendEDM(ctx, atcommand.SetWifiStationConfigInt(stationConfigID, atcommand.TagActiveOnStartup, 1)); err != nil {
		return err
	}

	if _, err := c.SendEDM(ctx, atcommand.SetWifiStationConfig(stationConfigID, atcommand.TagSSID, opts.SSID)); err != nil {
		return err
	}

	if opts.Password != "" {
		if _, err := c.SendEDM(ctx, atcommand.SetWifiStationConfigInt(stationConfigID, atcommand.TagAuthentication, int(AuthWPAWPA2PSK))); err != nil {
			return err
		}
		if _, err := c.SendEDM(ctx, atcommand.SetWifiStationConfig(stationConfigID, atcommand.TagPassphrase, opts.Password)); err != nil {
			return err
		}
	}

	_, err := c.SendEDM(ctx, atcommand.ExecWifiStationAction(stationConfigID, atcommand.ActionActivate))
	return err
}

// Disconnect deactivates the station configuration slot.
func Disconnect(ctx context.Context, c *client.Client) error {
	_, err := c.SendEDM(ctx, atcommand.ExecWifiStationAction(stationConfigID, atcommand.ActionDeactivate))
	return err
}

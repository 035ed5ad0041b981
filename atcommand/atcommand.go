// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package atcommand provides the minimal textual AT command vocabulary the
// connection runner and Wi-Fi state machine need to issue: system
// configuration (+UMRS, +CPWROFF, &W0), general status (+GMR), and
// station/network commands (+UWSC, +UWSCA, +UNSTAT). This is the in-tree
// stand-in for the AT command codec spec.md declares an external,
// out-of-scope collaborator (encode(cmd) -> bytes, decode(bytes) ->
// response|error); it covers only the command set this driver issues
// itself, grounded on command/system/mod.rs, command/wifi/mod.rs and
// command/network's GetNetworkStatus from the original source.
package atcommand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/usbarmory/ublox-shortrange/errs"
)

// FlowControl selects hardware flow control for SetRS232Settings.
type FlowControl int

const (
	FlowOff FlowControl = iota
	FlowOn
)

// ChangeAfterConfirm controls when new serial settings take effect.
type ChangeAfterConfirm int

const (
	ChangeImmediately ChangeAfterConfirm = iota
	ChangeAfterOK
	ChangeStoreAndReset
)

// SetRS232Settings builds the +UMRS command. change_after_confirm must be
// ChangeStoreAndReset in EDM mode per the module's datasheet: settings only
// take effect after a reset (SPEC_FULL.md §4.7).
func SetRS232Settings(baud int, flow FlowControl, changeAfterConfirm ChangeAfterConfirm) string {
	return fmt.Sprintf("AT+UMRS=%d,0,8,1,1,%d,%d\r\n", baud, flow, changeAfterConfirm)
}

// StoreCurrentConfig builds the &W0 command.
func StoreCurrentConfig() string { return "AT&W0\r\n" }

// RebootDCE builds the +CPWROFF command, which reboots the module.
func RebootDCE() string { return "AT+CPWROFF\r\n" }

// SetEcho builds the E command.
func SetEcho(on bool) string {
	if on {
		return "ATE1\r\n"
	}
	return "ATE0\r\n"
}

// SoftwareVersion builds the +GMR command.
func SoftwareVersion() string { return "AT+GMR\r\n" }

// WifiStationAction selects activate/deactivate for ExecWifiStationAction.
type WifiStationAction int

const (
	ActionDeactivate WifiStationAction = iota
	ActionActivate
)

// ExecWifiStationAction builds the +UWSCA command.
func ExecWifiStationAction(configID int, action WifiStationAction) string {
	return fmt.Sprintf("AT+UWSCA=%d,%d\r\n", configID, action)
}

// WifiStationConfigTag enumerates the +UWSC parameter tags this driver
// sets during station connect.
type WifiStationConfigTag int

const (
	TagActiveOnStartup WifiStationConfigTag = 0
	TagSSID            WifiStationConfigTag = 2
	TagIPv4Mode        WifiStationConfigTag = 100
	TagIPv4Address     WifiStationConfigTag = 101
	TagSubnetMask      WifiStationConfigTag = 102
	TagDefaultGateway  WifiStationConfigTag = 103
	TagAuthentication  WifiStationConfigTag = 5
	TagPassphrase      WifiStationConfigTag = 8
)

// SetWifiStationConfig builds a +UWSC command setting a single parameter
// tag to a string value.
func SetWifiStationConfig(configID int, tag WifiStationConfigTag, value string) string {
	return fmt.Sprintf("AT+UWSC=%d,%d,%s\r\n", configID, tag, value)
}

// SetWifiStationConfigInt is SetWifiStationConfig for an integer value.
func SetWifiStationConfigInt(configID int, tag WifiStationConfigTag, value int) string {
	return SetWifiStationConfig(configID, tag, strconv.Itoa(value))
}

// InterfaceTypeWifiStation is the module's InterfaceType status value
// identifying a Wi-Fi station interface, returned by a ParamInterfaceType
// query. The interface-type enumeration itself is not present in the
// retrieved reference material; this value is carried over from the
// module's general AT command family numbering and should be reconfirmed
// against the datasheet before being relied on for anything other than a
// sanity check.
const InterfaceTypeWifiStation = "2"

// NetworkStatusParameter selects which field GetNetworkStatus queries.
type NetworkStatusParameter int

const (
	ParamInterfaceType         NetworkStatusParameter = 0
	ParamGateway               NetworkStatusParameter = 3
	ParamIPv6LinkLocalAddress  NetworkStatusParameter = 14
)

// GetNetworkStatus builds the +UNSTAT query command.
func GetNetworkStatus(interfaceID int, param NetworkStatusParameter) string {
	return fmt.Sprintf("AT+UNSTAT=%d,%d\r\n", interfaceID, param)
}

// ParseNetworkStatusValue extracts the value portion of a "+UNSTAT:
// <if>,<param>,<value>" response line, tolerant of a leading "\r\n" and
// trailing "\r\nOK\r\n" the EDM codec has already stripped.
func ParseNetworkStatusValue(resp []byte) (string, error) {
	line := strings.TrimSpace(string(resp))
	line = strings.TrimPrefix(line, "+UNSTAT:")

	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return "", errs.InvalidResponse
	}

	return strings.TrimSpace(parts[2]), nil
}

// ConnectPeer builds the data-mode peer-connect command: url is a fully
// formed peer URL (scheme, host-or-IP, port, and any TLS parameters
// already encoded by the caller). The peer URL grammar itself
// (PeerUrlBuilder in the original) is not present in the retrieved
// material; this driver builds a minimal "scheme://host:port" form, see
// BuildPeerURL.
func ConnectPeer(url string) string {
	return fmt.Sprintf("AT+UDCP=%s\r\n", url)
}

// ParseConnectPeerResponse extracts the module-assigned peer handle from a
// "+UDCP: <peer_handle>" response.
func ParseConnectPeerResponse(resp []byte) (int, error) {
	line := strings.TrimSpace(string(resp))
	line = strings.TrimPrefix(line, "+UDCP:")
	line = strings.TrimSpace(line)

	handle, err := strconv.Atoi(line)
	if err != nil {
		return 0, errs.InvalidResponse
	}

	return handle, nil
}

// ClosePeerConnection builds the command to close an established peer by
// its module-assigned handle.
func ClosePeerConnection(peerHandle int) string {
	return fmt.Sprintf("AT+UDCPC=%d\r\n", peerHandle)
}

// BuildPeerURL constructs the minimal peer URL ConnectPeer needs: a
// scheme, a host (literal IP or cached hostname), and a port. TLS
// credential attachment (the original's PeerUrlBuilder.creds) is out of
// scope per spec.md's Non-goals on TLS credential import.
func BuildPeerURL(scheme, host string, port uint16) string {
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package edm

import "bytes"

// ATCodec is the external collaborator that serializes individual AT
// commands and deserializes their textual responses. The EDM layer only
// wraps and unwraps the byte payload around this codec's own format; it
// never interprets AT syntax itself.
type ATCodec interface {
	Encode(cmd string) []byte
	Decode(atBytes []byte) ([]byte, error)
}

// EncodeATRequest wraps an already-serialized AT command (as produced by an
// ATCodec) inside an EDM ATRequest frame.
func EncodeATRequest(atBytes []byte) []byte {
	payloadLen := len(atBytes) + 2

	frame := make([]byte, 0, payloadLen+Overhead)
	frame = append(frame,
		StartByte,
		byte(payloadLen>>8)&SizeFilter,
		byte(payloadLen),
		0x00,
		byte(TypeATRequest),
	)
	frame = append(frame, atBytes...)
	frame = append(frame, EndByte)

	return frame
}

// DecodeATConfirmation validates EDM framing around an ATConfirmation frame
// and returns the AT command/response bytes it carries, with any trailing
// "\r\nOK" region truncated before the caller hands the remainder to an
// ATCodec parser.
func DecodeATConfirmation(frame []byte) ([]byte, error) {
	if len(frame) < Overhead+1 ||
		frame[0] != StartByte ||
		frame[len(frame)-1] != EndByte {
		return nil, ErrInvalidResponse
	}

	payloadLen := CalcPayloadLen(frame)
	if len(frame)-Overhead != payloadLen || Type(frame[PayloadPosition]) != TypeATConfirmation {
		return nil, ErrInvalidResponse
	}

	// PayloadPosition+payloadLen is the frame's total length, END byte
	// included, so the AT text stops one byte short of it.
	atResp := frame[ATCommandPosition : PayloadPosition+payloadLen-1]

	if pos := bytes.Index(frame, []byte("\r\nOK")); pos >= 0 && pos >= ATCommandPosition {
		atResp = frame[ATCommandPosition:pos]
	}

	return atResp, nil
}

// DecodeATEvent validates EDM framing around an ATEvent frame and returns
// the AT text it carries, for URC parsing.
func DecodeATEvent(frame []byte) ([]byte, error) {
	if len(frame) < Overhead+1 ||
		frame[0] != StartByte ||
		frame[len(frame)-1] != EndByte {
		return nil, ErrInvalidResponse
	}

	payloadLen := CalcPayloadLen(frame)
	if len(frame)-Overhead != payloadLen || Type(frame[PayloadPosition]) != TypeATEvent {
		return nil, ErrInvalidResponse
	}

	return frame[ATCommandPosition : PayloadPosition+payloadLen-1], nil
}

// EdmDataCommand encodes an outbound data-channel payload as a fire-and-
// forget DataCommand frame; the module never confirms it.
type EdmDataCommand struct {
	Channel byte
	Data    []byte
}

// Encode serializes the command to its wire form.
func (c EdmDataCommand) Encode() []byte {
	payloadLen := len(c.Data) + 3

	frame := make([]byte, 0, payloadLen+Overhead)
	frame = append(frame,
		StartByte,
		byte(payloadLen>>8)&SizeFilter,
		byte(payloadLen),
		0x00,
		byte(TypeDataCommand),
		c.Channel,
	)
	frame = append(frame, c.Data...)
	frame = append(frame, EndByte)

	return frame
}

// ResendConnectEventsFrame is the fixed 6-byte vendor-defined frame sent
// after EDM entry to recover channel-id mappings for peers that were
// already open before the switch.
var ResendConnectEventsFrame = []byte{
	StartByte, 0x00, 0x02, 0x00, byte(TypeResendConnectEventsCommand), EndByte,
}

// SwitchToEdmText is the textual command that requests the module switch
// into Extended Data Mode.
const SwitchToEdmText = "ATO2\r\n"

// SwitchToEdmConfirmation is the fixed 6-byte EDM start-event frame the
// module replies with once it has switched into EDM.
var SwitchToEdmConfirmation = []byte{StartByte, 0x00, 0x02, 0x00, byte(TypeStartEvent), EndByte}

// ParseSwitchToEdmConfirmation validates that resp is exactly the expected
// start-event frame.
func ParseSwitchToEdmConfirmation(resp []byte) error {
	if !bytes.Equal(resp, SwitchToEdmConfirmation) {
		return ErrInvalidResponse
	}
	return nil
}

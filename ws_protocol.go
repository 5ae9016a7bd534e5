package axisplot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// Protocol constants
const (
	// ProtocolVersion is the current version of the frame protocol
	ProtocolVersion byte = 1

	// Message type constants
	MessageTypeData     byte = 0x01
	MessageTypeLayout   byte = 0x02
	MessageTypeFrameEnd byte = 0x03

	// Header size in bytes
	EnvelopeHeaderSize = 8
)

// EnvelopeHeader represents the message envelope header
type EnvelopeHeader struct {
	Version  byte
	Reserved [2]byte // Reserved for future use
	Type     byte
	Length   uint32 // Payload length in bytes
}

// DataMessage carries the points of one bound series (type 0x01). X is unix
// time in seconds. A NaN Y is a gap: the sample had no value for the field.
type DataMessage struct {
	SeriesIndex uint32
	Length      uint32    // Number of X/Y pairs
	X           []float64 // X values
	Y           []float64 // Y values
}

// FrameEndMessage closes a frame (type 0x03). Error is set when the revision
// could not be rendered, in which case no LAYOUT or DATA preceded it.
type FrameEndMessage struct {
	Revision uint64 `json:"revision"`
	Error    bool   `json:"error"`
	Msg      string `json:"msg,omitempty"`
}

// WSMessage represents a complete websocket message with header and payload
type WSMessage struct {
	Header  EnvelopeHeader
	Payload interface{} // One of: DataMessage, Layout, FrameEndMessage
}

// EncodeEnvelopeHeader encodes the envelope header into a byte slice
func EncodeEnvelopeHeader(env EnvelopeHeader) []byte {
	buf := make([]byte, EnvelopeHeaderSize)
	buf[0] = env.Version
	buf[1] = env.Reserved[0]
	buf[2] = env.Reserved[1]
	buf[3] = env.Type
	binary.LittleEndian.PutUint32(buf[4:8], env.Length)
	return buf
}

// DecodeEnvelopeHeader decodes the envelope header from a byte slice
// Returns the envelope and an error if the buffer is too short
func DecodeEnvelopeHeader(buf []byte) (EnvelopeHeader, error) {
	if len(buf) < EnvelopeHeaderSize {
		return EnvelopeHeader{}, fmt.Errorf("buffer too short: expected at least %d bytes, got %d", EnvelopeHeaderSize, len(buf))
	}

	env := EnvelopeHeader{
		Version: buf[0],
		Type:    buf[3],
		Length:  binary.LittleEndian.Uint32(buf[4:8]),
	}
	env.Reserved[0] = buf[1]
	env.Reserved[1] = buf[2]

	return env, nil
}

// NewDataMessage converts a bound series into its wire form.
func NewDataMessage(index uint32, series BoundSeries) DataMessage {
	msg := DataMessage{
		SeriesIndex: index,
		Length:      uint32(len(series.Points)),
		X:           make([]float64, len(series.Points)),
		Y:           make([]float64, len(series.Points)),
	}

	for i, point := range series.Points {
		msg.X[i] = float64(point.X.UnixMilli()) / 1000
		if point.Y == nil {
			msg.Y[i] = math.NaN()
		} else {
			msg.Y[i] = *point.Y
		}
	}

	return msg
}

// EncodeDataMessage encodes a DATA message payload
// Returns error if X and Y arrays don't match in length
func EncodeDataMessage(msg DataMessage) ([]byte, error) {
	if len(msg.X) != len(msg.Y) {
		return nil, fmt.Errorf("X and Y arrays must have same length: X=%d, Y=%d", len(msg.X), len(msg.Y))
	}
	if uint32(len(msg.X)) != msg.Length {
		return nil, fmt.Errorf("Length field (%d) doesn't match array length (%d)", msg.Length, len(msg.X))
	}

	// SeriesIndex(4) + Length(4) + X array + Y array
	payloadSize := 8 + (msg.Length * 8 * 2)
	buf := make([]byte, payloadSize)

	binary.LittleEndian.PutUint32(buf[0:4], msg.SeriesIndex)
	binary.LittleEndian.PutUint32(buf[4:8], msg.Length)

	offset := 8
	for _, x := range msg.X {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], math.Float64bits(x))
		offset += 8
	}

	for _, y := range msg.Y {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], math.Float64bits(y))
		offset += 8
	}

	return buf, nil
}

// DecodeDataMessage decodes a DATA message payload
func DecodeDataMessage(buf []byte) (DataMessage, error) {
	if len(buf) < 8 {
		return DataMessage{}, fmt.Errorf("buffer too short for DATA message: expected at least 8 bytes, got %d", len(buf))
	}

	msg := DataMessage{
		SeriesIndex: binary.LittleEndian.Uint32(buf[0:4]),
		Length:      binary.LittleEndian.Uint32(buf[4:8]),
	}

	expectedSize := 8 + (uint64(msg.Length) * 8 * 2)
	if uint64(len(buf)) != expectedSize {
		return DataMessage{}, fmt.Errorf("buffer size mismatch: expected %d bytes for %d pairs, got %d", expectedSize, msg.Length, len(buf))
	}

	msg.X = make([]float64, msg.Length)
	offset := 8
	for i := uint32(0); i < msg.Length; i++ {
		msg.X[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[offset : offset+8]))
		offset += 8
	}

	msg.Y = make([]float64, msg.Length)
	for i := uint32(0); i < msg.Length; i++ {
		msg.Y[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[offset : offset+8]))
		offset += 8
	}

	return msg, nil
}

// Both LAYOUT and FRAME_END payloads are a 4 byte JSON length followed by the
// JSON document.
func encodeJSONPayload(v interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 4+len(jsonData))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(jsonData)))
	copy(buf[4:], jsonData)

	return buf, nil
}

func decodeJSONPayload(buf []byte, v interface{}) error {
	if len(buf) < 4 {
		return fmt.Errorf("buffer too short: expected at least 4 bytes, got %d", len(buf))
	}

	jsonLength := binary.LittleEndian.Uint32(buf[0:4])

	expectedSize := 4 + uint64(jsonLength)
	if uint64(len(buf)) != expectedSize {
		return fmt.Errorf("buffer size mismatch: expected %d bytes, got %d", expectedSize, len(buf))
	}

	return json.Unmarshal(buf[4:], v)
}

// EncodeLayoutMessage encodes a LAYOUT message payload
func EncodeLayoutMessage(layout Layout) ([]byte, error) {
	buf, err := encodeJSONPayload(layout)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal layout: %w", err)
	}
	return buf, nil
}

// DecodeLayoutMessage decodes a LAYOUT message payload
func DecodeLayoutMessage(buf []byte) (Layout, error) {
	var layout Layout
	if err := decodeJSONPayload(buf, &layout); err != nil {
		return Layout{}, fmt.Errorf("failed to decode LAYOUT message: %w", err)
	}
	return layout, nil
}

// EncodeFrameEndMessage encodes a FRAME_END message payload
func EncodeFrameEndMessage(msg FrameEndMessage) ([]byte, error) {
	buf, err := encodeJSONPayload(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frame end message: %w", err)
	}
	return buf, nil
}

// DecodeFrameEndMessage decodes a FRAME_END message payload
func DecodeFrameEndMessage(buf []byte) (FrameEndMessage, error) {
	var msg FrameEndMessage
	if err := decodeJSONPayload(buf, &msg); err != nil {
		return FrameEndMessage{}, fmt.Errorf("failed to decode FRAME_END message: %w", err)
	}
	return msg, nil
}

// EncodeWSMessage encodes a WSMessage into a complete message byte slice
// Returns error if payload encoding fails or if payload type is invalid
func EncodeWSMessage(msg WSMessage) ([]byte, error) {
	var payload []byte
	var err error

	switch msg.Header.Type {
	case MessageTypeData:
		dataMsg, ok := msg.Payload.(DataMessage)
		if !ok {
			return nil, fmt.Errorf("payload type mismatch: expected DataMessage for type 0x%02x, got %T", msg.Header.Type, msg.Payload)
		}
		payload, err = EncodeDataMessage(dataMsg)
	case MessageTypeLayout:
		layout, ok := msg.Payload.(Layout)
		if !ok {
			return nil, fmt.Errorf("payload type mismatch: expected Layout for type 0x%02x, got %T", msg.Header.Type, msg.Payload)
		}
		payload, err = EncodeLayoutMessage(layout)
	case MessageTypeFrameEnd:
		frameEnd, ok := msg.Payload.(FrameEndMessage)
		if !ok {
			return nil, fmt.Errorf("payload type mismatch: expected FrameEndMessage for type 0x%02x, got %T", msg.Header.Type, msg.Payload)
		}
		payload, err = EncodeFrameEndMessage(frameEnd)
	default:
		return nil, fmt.Errorf("unknown message type: 0x%02x", msg.Header.Type)
	}

	if err != nil {
		return nil, err
	}

	msg.Header.Length = uint32(len(payload))
	header := EncodeEnvelopeHeader(msg.Header)

	fullMsg := make([]byte, len(header)+len(payload))
	copy(fullMsg, header)
	copy(fullMsg[len(header):], payload)

	return fullMsg, nil
}

// DecodeWSMessage decodes a complete message (envelope + payload) into a WSMessage
// Returns error if buffer is too short or payload decoding fails
func DecodeWSMessage(buf []byte) (WSMessage, error) {
	env, err := DecodeEnvelopeHeader(buf)
	if err != nil {
		return WSMessage{}, err
	}

	expectedSize := uint64(EnvelopeHeaderSize) + uint64(env.Length)
	if uint64(len(buf)) < expectedSize {
		return WSMessage{}, fmt.Errorf("buffer too short: expected %d bytes (header + payload), got %d", expectedSize, len(buf))
	}

	payloadBytes := buf[EnvelopeHeaderSize:expectedSize]

	var payload interface{}
	switch env.Type {
	case MessageTypeData:
		payload, err = DecodeDataMessage(payloadBytes)
	case MessageTypeLayout:
		payload, err = DecodeLayoutMessage(payloadBytes)
	case MessageTypeFrameEnd:
		payload, err = DecodeFrameEndMessage(payloadBytes)
	default:
		return WSMessage{}, fmt.Errorf("unknown message type: 0x%02x", env.Type)
	}

	if err != nil {
		return WSMessage{}, err
	}

	return WSMessage{
		Header:  env,
		Payload: payload,
	}, nil
}

// EncodeFrame encodes a frame as the message sequence a client receives:
// LAYOUT, one DATA per series in model order, then FRAME_END. A failed frame
// is a lone FRAME_END carrying the error.
func EncodeFrame(frame Frame) ([][]byte, error) {
	header := func(messageType byte) EnvelopeHeader {
		return EnvelopeHeader{Version: ProtocolVersion, Type: messageType}
	}

	messages := make([][]byte, 0, len(frame.Model.Series)+2)

	if frame.Err != nil {
		msg, err := EncodeWSMessage(WSMessage{
			Header:  header(MessageTypeFrameEnd),
			Payload: FrameEndMessage{Revision: frame.Revision, Error: true, Msg: frame.Err.Error()},
		})
		if err != nil {
			return nil, err
		}
		return append(messages, msg), nil
	}

	msg, err := EncodeWSMessage(WSMessage{
		Header:  header(MessageTypeLayout),
		Payload: NewLayout(frame.Revision, frame.Model),
	})
	if err != nil {
		return nil, err
	}
	messages = append(messages, msg)

	for i, series := range frame.Model.Series {
		msg, err := EncodeWSMessage(WSMessage{
			Header:  header(MessageTypeData),
			Payload: NewDataMessage(uint32(i), series),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode series %q: %w", series.Series.ID, err)
		}
		messages = append(messages, msg)
	}

	msg, err = EncodeWSMessage(WSMessage{
		Header:  header(MessageTypeFrameEnd),
		Payload: FrameEndMessage{Revision: frame.Revision},
	})
	if err != nil {
		return nil, err
	}

	return append(messages, msg), nil
}

// Package events defines the wire frame the admin server uses to stream
// pool lifecycle events to the dashboard over a websocket.
package events

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// Magic bytes identify respool-events frames.
var Magic = [2]byte{0x52, 0x45} // "RE"

// Version is the current frame version.
const Version uint8 = 0x01

// FrameHeaderSize is the fixed size of a frame header in bytes.
const FrameHeaderSize = 10

// Message types describe the kind of payload a Frame carries.
const (
	TypeEvent uint8 = 0x01 // pool lifecycle event (see Record)
	TypeStats uint8 = 0x02 // pool.Stats snapshot
	TypePing  uint8 = 0x03 // keepalive
)

// Frame is a single respool-events protocol frame.
type Frame struct {
	Type    uint8
	Payload []byte // msgpack encoded
}

var writeBufPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 128)
		return &b
	},
}

// WriteFrame encodes and writes a frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	totalSize := FrameHeaderSize + len(f.Payload)

	bp := writeBufPool.Get().(*[]byte)
	buf := (*bp)[:0]
	if cap(buf) < totalSize {
		buf = make([]byte, 0, totalSize)
	}
	buf = buf[:FrameHeaderSize]

	buf[0] = Magic[0]
	buf[1] = Magic[1]
	buf[2] = Version
	buf[3] = f.Type
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(f.Payload)))
	buf[8] = 0
	buf[9] = 0

	buf = append(buf, f.Payload...)

	_, err := w.Write(buf)

	*bp = buf
	writeBufPool.Put(bp)

	if err != nil {
		return fmt.Errorf("writing event frame: %w", err)
	}
	return nil
}

var readHdrPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, FrameHeaderSize)
		return &b
	},
}

// ReadFrame reads and decodes a frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	bp := readHdrPool.Get().(*[]byte)
	header := *bp
	defer readHdrPool.Put(bp)

	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading event frame header: %w", err)
	}

	if header[0] != Magic[0] || header[1] != Magic[1] {
		return nil, fmt.Errorf("invalid magic bytes: 0x%02x%02x", header[0], header[1])
	}
	if header[2] != Version {
		return nil, fmt.Errorf("unsupported event frame version: %d", header[2])
	}

	f := &Frame{Type: header[3]}
	payloadSize := binary.BigEndian.Uint32(header[4:8])

	if payloadSize > 0 {
		payload := make([]byte, payloadSize)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("reading event frame payload (%d bytes): %w", payloadSize, err)
		}
		f.Payload = payload
	}

	return f, nil
}

// NewPingFrame creates a keepalive frame.
func NewPingFrame() *Frame {
	return &Frame{Type: TypePing, Payload: []byte("ping")}
}

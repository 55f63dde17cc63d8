package events

import (
	"bytes"
	"testing"
	"time"

	"github.com/kestrel-systems/respool/pool"
)

func TestWriteReadFrameRoundtrip(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
	}{
		{
			name:  "ping",
			frame: NewPingFrame(),
		},
		{
			name:  "empty payload",
			frame: &Frame{Type: TypeStats, Payload: nil},
		},
		{
			name:  "with payload",
			frame: &Frame{Type: TypeEvent, Payload: []byte("hello")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteFrame(&buf, tt.frame); err != nil {
				t.Fatalf("WriteFrame: %v", err)
			}

			got, err := ReadFrame(&buf)
			if err != nil {
				t.Fatalf("ReadFrame: %v", err)
			}

			if got.Type != tt.frame.Type {
				t.Errorf("Type: got %d, want %d", got.Type, tt.frame.Type)
			}
			if !bytes.Equal(got.Payload, tt.frame.Payload) {
				t.Errorf("Payload: got %q, want %q", got.Payload, tt.frame.Payload)
			}
		})
	}
}

func TestInvalidMagicBytes(t *testing.T) {
	data := make([]byte, FrameHeaderSize)
	data[0] = 0xFF
	data[1] = 0xFF
	data[2] = Version

	_, err := ReadFrame(bytes.NewReader(data))
	if err == nil {
		t.Error("expected error for invalid magic bytes")
	}
}

func TestInvalidVersion(t *testing.T) {
	data := make([]byte, FrameHeaderSize)
	data[0] = Magic[0]
	data[1] = Magic[1]
	data[2] = 0xFF

	_, err := ReadFrame(bytes.NewReader(data))
	if err == nil {
		t.Error("expected error for invalid version")
	}
}

func TestEventEncodeDecodeRoundtrip(t *testing.T) {
	rec := NewRecord(pool.Event{Kind: pool.EventCheckout, LiveCount: 3}, time.Unix(1000, 0))

	frame, err := EncodeEvent(rec)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, frame); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	readFrame, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	got, err := DecodeEvent(readFrame)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	if got.Kind != "checkout" {
		t.Errorf("Kind: got %s, want checkout", got.Kind)
	}
	if got.LiveCount != 3 {
		t.Errorf("LiveCount: got %d, want 3", got.LiveCount)
	}
}

func TestStatsEncodeDecodeRoundtrip(t *testing.T) {
	rec := NewStatsRecord(pool.Stats{PoolSize: 8, LiveCount: 5, ReadyCount: 2, SchedulerDepth: 1})

	frame, err := EncodeStats(rec)
	if err != nil {
		t.Fatalf("EncodeStats: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, frame); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	readFrame, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	got, err := DecodeStats(readFrame)
	if err != nil {
		t.Fatalf("DecodeStats: %v", err)
	}

	if got.PoolSize != 8 || got.LiveCount != 5 || got.ReadyCount != 2 || got.SchedulerDepth != 1 {
		t.Errorf("unexpected stats record: %+v", got)
	}
}

func TestDecodeWrongFrameType(t *testing.T) {
	frame := &Frame{Type: TypePing}
	if _, err := DecodeEvent(frame); err == nil {
		t.Error("expected error decoding PING as event")
	}
	if _, err := DecodeStats(frame); err == nil {
		t.Error("expected error decoding PING as stats")
	}
}

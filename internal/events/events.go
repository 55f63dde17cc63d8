package events

import (
	"fmt"
	"time"

	"github.com/kestrel-systems/respool/pool"
)

// Record is the msgpack payload carried by a TypeEvent frame: a pool.Event
// plus the wall-clock time the admin server observed it, since pool.Event
// itself carries no timestamp.
type Record struct {
	Kind      string    `msgpack:"kind"`
	LiveCount uint32    `msgpack:"live_count"`
	At        time.Time `msgpack:"at"`
}

// NewRecord converts a pool.Event into a Record at observation time.
func NewRecord(e pool.Event, at time.Time) Record {
	return Record{Kind: e.Kind.String(), LiveCount: e.LiveCount, At: at}
}

// EncodeEvent builds a TypeEvent frame from a Record.
func EncodeEvent(rec Record) (*Frame, error) {
	payload, err := MarshalMsgpack(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding event record: %w", err)
	}
	return &Frame{Type: TypeEvent, Payload: payload}, nil
}

// DecodeEvent extracts a Record from a TypeEvent frame.
func DecodeEvent(f *Frame) (Record, error) {
	var rec Record
	if f.Type != TypeEvent {
		return rec, fmt.Errorf("expected event frame, got type 0x%02x", f.Type)
	}
	if err := UnmarshalMsgpack(f.Payload, &rec); err != nil {
		return rec, fmt.Errorf("decoding event record: %w", err)
	}
	return rec, nil
}

// StatsRecord is the msgpack payload carried by a TypeStats frame.
type StatsRecord struct {
	PoolSize       uint32 `msgpack:"pool_size"`
	LiveCount      uint32 `msgpack:"live_count"`
	ReadyCount     uint32 `msgpack:"ready_count"`
	SchedulerDepth int    `msgpack:"scheduler_depth"`
}

// NewStatsRecord converts a pool.Stats snapshot into a StatsRecord.
func NewStatsRecord(s pool.Stats) StatsRecord {
	return StatsRecord{
		PoolSize:       s.PoolSize,
		LiveCount:      s.LiveCount,
		ReadyCount:     s.ReadyCount,
		SchedulerDepth: s.SchedulerDepth,
	}
}

// EncodeStats builds a TypeStats frame from a StatsRecord.
func EncodeStats(rec StatsRecord) (*Frame, error) {
	payload, err := MarshalMsgpack(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding stats record: %w", err)
	}
	return &Frame{Type: TypeStats, Payload: payload}, nil
}

// DecodeStats extracts a StatsRecord from a TypeStats frame.
func DecodeStats(f *Frame) (StatsRecord, error) {
	var rec StatsRecord
	if f.Type != TypeStats {
		return rec, fmt.Errorf("expected stats frame, got type 0x%02x", f.Type)
	}
	if err := UnmarshalMsgpack(f.Payload, &rec); err != nil {
		return rec, fmt.Errorf("decoding stats record: %w", err)
	}
	return rec, nil
}

package pool

import (
	"context"
	"testing"
	"time"
)

type benchConn struct{ id int }

type benchManager struct{}

func (benchManager) Connect(context.Context) (*benchConn, error) { return &benchConn{}, nil }
func (benchManager) Validate(context.Context, *benchConn) error  { return nil }
func (benchManager) HasBroken(*benchConn) bool                   { return false }

func BenchmarkPoolGetPut(b *testing.B) {
	p, err := New[*benchConn](Config{PoolSize: 8, HelperThreads: 2}, benchManager{}, NoopErrorSink{})
	if err != nil {
		b.Fatal(err)
	}
	defer p.Close()

	for p.Stats().LiveCount < 8 {
		time.Sleep(time.Millisecond)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		h, err := p.Get()
		if err != nil {
			b.Fatal(err)
		}
		h.Close()
	}
}

func BenchmarkPoolGetPutParallel(b *testing.B) {
	p, err := New[*benchConn](Config{PoolSize: 32, HelperThreads: 4}, benchManager{}, NoopErrorSink{})
	if err != nil {
		b.Fatal(err)
	}
	defer p.Close()

	for p.Stats().LiveCount < 32 {
		time.Sleep(time.Millisecond)
	}

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			h, err := p.Get()
			if err != nil {
				b.Fatal(err)
			}
			h.Close()
		}
	})
}

func BenchmarkScheduleReplacement(b *testing.B) {
	p, err := New[*benchConn](Config{PoolSize: 1, HelperThreads: 4}, benchManager{}, NoopErrorSink{})
	if err != nil {
		b.Fatal(err)
	}
	defer p.Close()

	for p.Stats().LiveCount < 1 {
		time.Sleep(time.Millisecond)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.shared.scheduleReplacement()
	}
}

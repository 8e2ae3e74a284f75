package db

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePinger struct {
	err   error
	delay time.Duration
}

func (f *fakePinger) Ping(ctx context.Context) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestProbe_Connected(t *testing.T) {
	p := NewProbe(&fakePinger{}, time.Second)
	if !p.Connected(context.Background()) {
		t.Error("expected connected")
	}
}

func TestProbe_PingError(t *testing.T) {
	p := NewProbe(&fakePinger{err: errors.New("connection refused")}, time.Second)
	if p.Connected(context.Background()) {
		t.Error("expected disconnected on ping error")
	}
}

func TestProbe_Timeout(t *testing.T) {
	p := NewProbe(&fakePinger{delay: 200 * time.Millisecond}, 10*time.Millisecond)
	if p.Connected(context.Background()) {
		t.Error("expected disconnected when ping exceeds timeout")
	}
}

func TestProbe_NilPinger(t *testing.T) {
	var p *Probe
	if p.Connected(context.Background()) {
		t.Error("expected nil probe to report disconnected")
	}
	if NewProbe(nil, 0).Connected(context.Background()) {
		t.Error("expected probe without pinger to report disconnected")
	}
}

func TestPoolStats_Fields(t *testing.T) {
	stats := &PoolStats{
		TotalConns:      10,
		IdleConns:       5,
		AcquiredConns:   5,
		MaxConns:        20,
		AcquireCount:    100,
		AcquireDuration: "1.5s",
	}
	if stats.TotalConns != 10 || stats.IdleConns != 5 || stats.MaxConns != 20 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

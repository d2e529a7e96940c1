package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	events  []Event
}

func (s *blockingSink) Emit(_ context.Context, e Event) {
	<-s.release
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 || d.Delivered() != 0 {
		t.Fatal("nil dispatcher must report zero counters")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "token_issued"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink and a one-slot buffer")
	}

	close(sink.release)
	d.Close()

	if got := d.Delivered() + d.Dropped(); got != 10 {
		t.Fatalf("expected delivered+dropped=10, got %d", got)
	}
}

func TestDispatcherAssignsEventID(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)

	d.Emit(context.Background(), Event{EventType: "token_revoked"})
	d.Emit(context.Background(), Event{EventID: "fixed", EventType: "token_revoked"})
	d.Close()

	first := <-sink.Events()
	second := <-sink.Events()
	if len(first.EventID) != 36 {
		t.Fatalf("expected generated uuid, got %q", first.EventID)
	}
	if second.EventID != "fixed" {
		t.Fatalf("expected caller id to be kept, got %q", second.EventID)
	}
}

func TestDispatcherCloseDrainsBuffer(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)
	for i := 0; i < 16; i++ {
		d.Emit(context.Background(), Event{EventType: "token_issued"})
	}
	d.Close()
	if d.Delivered() != 16 {
		t.Fatalf("expected 16 delivered events after close, got %d", d.Delivered())
	}
	if d.Dropped() != 0 {
		t.Fatalf("expected no drops before close, got %d", d.Dropped())
	}

	d.Emit(context.Background(), Event{EventType: "token_revoked"})
	d.Emit(context.Background(), Event{EventType: "token_revoked"})
	if d.Delivered() != 16 {
		t.Fatal("emit after close must not reach the sink")
	}
	if d.Dropped() != 2 {
		t.Fatalf("expected events after close to count as dropped, got %d", d.Dropped())
	}
}

func TestDispatcherBlockingEmitAfterCloseCountsDrop(t *testing.T) {
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, NoOpSink{})
	d.Close()
	d.Emit(context.Background(), Event{EventType: "token_issued"})
	if d.Dropped() != 1 || d.Delivered() != 0 {
		t.Fatalf("expected 1 dropped and 0 delivered, got %d/%d", d.Dropped(), d.Delivered())
	}
}

func TestJSONWriterSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventID: "a", EventType: "token_issued", Success: true, Timestamp: time.Unix(0, 0).UTC()})
	sink.Emit(context.Background(), Event{EventID: "b", EventType: "token_rejected", Error: "expired"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var e Event
	if err := json.Unmarshal([]byte(lines[1]), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.EventType != "token_rejected" || e.Error != "expired" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	sink := NewSlogSink(logger)

	sink.Emit(context.Background(), Event{EventType: "token_issued", Success: true})
	if buf.Len() != 0 {
		t.Fatal("successful events log at info and must be filtered at warn level")
	}

	sink.Emit(context.Background(), Event{EventType: "token_rejected", Error: "revoked", TokenID: "jti-1"})
	out := buf.String()
	if !strings.Contains(out, `"error":"revoked"`) || !strings.Contains(out, `"token_id":"jti-1"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

package readmodel

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/mchess-live/internal/live"
	"github.com/park285/mchess-live/internal/position"
)

func newTestPublisher(t *testing.T) (*Publisher, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	p, err := Dial(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), "mchess:view", "mchess:view:latest", time.Minute, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, mr
}

func TestPublishSendsAndCaches(t *testing.T) {
	p, mr := newTestPublisher(t)
	ctx := context.Background()

	sub := p.rdb.Subscribe(ctx, "mchess:view")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	v := live.View{
		Connection: live.ConnectionView{Status: live.StatusConnected, Session: "s-1"},
		Position:   position.Snapshot{FEN: "8/8/8/8/8/8/8/K6k w - - 0 1", Title: "Alice - Bob"},
	}
	if err := p.Publish(ctx, v); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		if msg.Payload == "" {
			t.Fatalf("empty payload")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message published")
	}

	latest, err := p.Latest(ctx)
	if err != nil || latest == nil {
		t.Fatalf("Latest: %v %v", latest, err)
	}
	if latest.Position.Title != "Alice - Bob" || latest.Connection.Status != live.StatusConnected {
		t.Fatalf("unexpected cached view: %+v", latest)
	}
	if ttl := mr.TTL("mchess:view:latest"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}

func TestLatestEmpty(t *testing.T) {
	p, _ := newTestPublisher(t)
	v, err := p.Latest(context.Background())
	if err != nil || v != nil {
		t.Fatalf("expected no cached view, got %v %v", v, err)
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := parseRedisURL("redis://:secret@localhost:6380/2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 || opts.TLSConfig != nil {
		t.Fatalf("unexpected options: %+v", opts)
	}
	opts, err = parseRedisURL("rediss://cache.internal:6379")
	if err != nil || opts.TLSConfig == nil {
		t.Fatalf("rediss should enable TLS: %v", err)
	}
	if _, err := parseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func TestDialRequiresURL(t *testing.T) {
	if _, err := Dial(context.Background(), " ", "c", "k", time.Minute, nil); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

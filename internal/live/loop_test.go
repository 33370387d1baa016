package live

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/park285/mchess-live/internal/wsconn"
)

type recordingPublisher struct {
	mu    sync.Mutex
	views []View
}

func (p *recordingPublisher) Publish(_ context.Context, v View) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = append(p.views, v)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.views)
}

func startLoop(t *testing.T) (*Loop, *recordingPublisher, context.CancelFunc, chan error) {
	t.Helper()
	st, _, _ := newTestState(t, true)
	pub := &recordingPublisher{}
	l := NewLoop(st, pub, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	return l, pub, cancel, errCh
}

func TestLoopPreservesOrder(t *testing.T) {
	l, pub, cancel, _ := startLoop(t)
	defer cancel()

	l.ConnectionChanged(wsconn.StateOpen, "s-1")
	l.Frame(frame(boardFrame))
	for d := 1; d <= 50; d++ {
		l.Frame(frame(`{"cmd":"current_move_info","actor":"UciAgent.1","multipv_index":1,"san_variant":[[1,"e4"]],"depth":` + strconv.Itoa(d) + `}`))
	}
	l.Frame(frame("not-json"))

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	v, err := l.View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Connection.Status != StatusConnected || v.Position.FEN != startFEN {
		t.Fatalf("unexpected view: %+v", v.Connection)
	}
	slots := v.Analysis.Slots
	if len(slots) != 1 || slots[0].Header != " | Depth: 50 |" {
		t.Fatalf("last report should win: %+v", slots)
	}
	// one publish per handled event; the malformed frame publishes nothing
	if got := pub.count(); got != 52 {
		t.Fatalf("expected 52 publishes, got %d", got)
	}
}

func TestLoopSubmit(t *testing.T) {
	l, _, cancel, _ := startLoop(t)
	defer cancel()
	l.Frame(frame(`{"cmd":"valid_moves","valid_moves":["g1f3"]}`))

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	res, err := l.Submit(ctx, Intent{Kind: IntentDrop, Payload: Payload{From: "g1", To: "f3"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.OK || res.Move != "g1f3" {
		t.Fatalf("result = %+v", res)
	}
}

func TestLoopStopped(t *testing.T) {
	l, _, cancel, errCh := startLoop(t)
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
	if _, err := l.Submit(context.Background(), Intent{Kind: IntentStop}); !errors.Is(err, ErrLoopStopped) {
		t.Fatalf("Submit after stop: %v", err)
	}
	if _, err := l.View(context.Background()); !errors.Is(err, ErrLoopStopped) {
		t.Fatalf("View after stop: %v", err)
	}
	// callbacks from the socket must not block once the loop is gone
	l.Frame(frame(boardFrame))
	l.ConnectionChanged(wsconn.StateClosed, "")
}

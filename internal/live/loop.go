package live

import (
	"context"
	"time"

	"github.com/park285/mchess-live/internal/dispatch"
	"github.com/park285/mchess-live/internal/wsconn"
	"go.uber.org/zap"
)

var ErrLoopStopped = errf("live loop stopped")

const publishTimeout = 2 * time.Second

// Publisher fans the read model out to renderers.
type Publisher interface {
	Publish(ctx context.Context, v View) error
}

type eventKind int

const (
	evFrame eventKind = iota
	evConn
	evIntent
	evView
)

type event struct {
	kind    eventKind
	frame   []byte
	conn    wsconn.State
	session string
	ctx     context.Context
	intent  Intent
	reply   chan IntentResult
	view    chan View
}

// Loop is the single writer of a State. Frames, connection changes, intents and view
// requests are queued and handled one at a time in arrival order.
type Loop struct {
	state     *State
	events    chan event
	done      chan struct{}
	publisher Publisher
	logger    *zap.Logger
}

func NewLoop(state *State, publisher Publisher, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		state:     state,
		events:    make(chan event, 256),
		done:      make(chan struct{}),
		publisher: publisher,
		logger:    logger,
	}
}

// Run processes events until ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	l.logger.Info("live_loop_started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("live_loop_stopped")
			return ctx.Err()
		case ev := <-l.events:
			if l.handle(ev) {
				l.publish(ctx)
			}
		}
	}
}

// handle applies one event and reports whether the read model may have changed.
func (l *Loop) handle(ev event) bool {
	switch ev.kind {
	case evFrame:
		return l.state.HandleFrame(ev.frame) == dispatch.Handled
	case evConn:
		l.state.ConnectionChanged(ev.conn, ev.session)
		return true
	case evIntent:
		res := l.state.Apply(ev.ctx, ev.intent)
		ev.reply <- res
		return res.OK && ev.intent.Kind != IntentDragStart
	case evView:
		ev.view <- l.state.View()
	}
	return false
}

func (l *Loop) publish(ctx context.Context) {
	if l.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := l.publisher.Publish(pctx, l.state.View()); err != nil {
		l.logger.Warn("live_publish_failed", zap.Error(err))
	}
}

// Frame queues an inbound frame. It matches wsconn.FrameCallback and blocks while the
// queue is full so no frame is dropped or reordered.
func (l *Loop) Frame(raw []byte) {
	select {
	case l.events <- event{kind: evFrame, frame: raw}:
	case <-l.done:
	}
}

// ConnectionChanged queues a lifecycle transition. It matches wsconn.StateCallback.
func (l *Loop) ConnectionChanged(state wsconn.State, session string) {
	select {
	case l.events <- event{kind: evConn, conn: state, session: session}:
	case <-l.done:
	}
}

// Submit runs an intent on the loop and waits for its result.
func (l *Loop) Submit(ctx context.Context, in Intent) (IntentResult, error) {
	reply := make(chan IntentResult, 1)
	select {
	case l.events <- event{kind: evIntent, ctx: ctx, intent: in, reply: reply}:
	case <-l.done:
		return IntentResult{}, ErrLoopStopped
	case <-ctx.Done():
		return IntentResult{}, ctx.Err()
	}
	select {
	case res := <-reply:
		return res, nil
	case <-l.done:
		return IntentResult{}, ErrLoopStopped
	case <-ctx.Done():
		return IntentResult{}, ctx.Err()
	}
}

// View returns a read model built on the loop.
func (l *Loop) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case l.events <- event{kind: evView, view: reply}:
	case <-l.done:
		return View{}, ErrLoopStopped
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-l.done:
		return View{}, ErrLoopStopped
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

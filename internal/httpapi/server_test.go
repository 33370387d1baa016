package httpapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/park285/mchess-live/internal/live"
	"github.com/valyala/fasthttp"
)

type fakeBackend struct {
	view     live.View
	stopped  bool
	received []live.Intent
}

func (f *fakeBackend) View(context.Context) (live.View, error) {
	if f.stopped {
		return live.View{}, live.ErrLoopStopped
	}
	return f.view, nil
}

func (f *fakeBackend) Submit(_ context.Context, in live.Intent) (live.IntentResult, error) {
	if f.stopped {
		return live.IntentResult{}, live.ErrLoopStopped
	}
	f.received = append(f.received, in)
	if in.Kind == live.IntentDrop {
		return live.IntentResult{Error: "move is not in the legal-move set"}, nil
	}
	return live.IntentResult{OK: true}, nil
}

func do(s *Server, method, uri, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	s.Handle(ctx)
	return ctx
}

func TestViewEndpoint(t *testing.T) {
	b := &fakeBackend{view: live.View{Connection: live.ConnectionView{Status: live.StatusConnected}}}
	s := New(":0", b, nil)

	ctx := do(s, fasthttp.MethodGet, "/api/view", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	var v live.View
	if err := json.Unmarshal(ctx.Response.Body(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Connection.Status != live.StatusConnected {
		t.Fatalf("unexpected view %+v", v.Connection)
	}
}

func TestIntentEndpoint(t *testing.T) {
	b := &fakeBackend{}
	s := New(":0", b, nil)

	ctx := do(s, fasthttp.MethodPost, "/api/intent", `{"kind":"import_fen","payload":{"fen":"8/8/8/8/8/8/8/K6k w - - 0 1"}}`)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d body=%s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if len(b.received) != 1 || b.received[0].Payload.FEN == "" {
		t.Fatalf("intent not forwarded: %+v", b.received)
	}

	ctx = do(s, fasthttp.MethodPost, "/api/intent", `{"kind":"drop","payload":{"from":"e2","to":"e5"}}`)
	if ctx.Response.StatusCode() != fasthttp.StatusUnprocessableEntity {
		t.Fatalf("rejected drop status = %d", ctx.Response.StatusCode())
	}

	ctx = do(s, fasthttp.MethodPost, "/api/intent", `{"kind":`)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("malformed body status = %d", ctx.Response.StatusCode())
	}
	if len(b.received) != 2 {
		t.Fatalf("malformed body must not reach the backend")
	}
}

func TestRouting(t *testing.T) {
	b := &fakeBackend{}
	s := New(":0", b, nil)
	if c := do(s, fasthttp.MethodGet, "/healthz", ""); c.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("healthz = %d", c.Response.StatusCode())
	}
	if c := do(s, fasthttp.MethodGet, "/api/intent", ""); c.Response.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("GET intent = %d", c.Response.StatusCode())
	}
	if c := do(s, fasthttp.MethodGet, "/nope", ""); c.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("unknown path = %d", c.Response.StatusCode())
	}

	b.stopped = true
	if c := do(s, fasthttp.MethodGet, "/api/view", ""); c.Response.StatusCode() != fasthttp.StatusServiceUnavailable {
		t.Fatalf("stopped backend = %d", c.Response.StatusCode())
	}
}

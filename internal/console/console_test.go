package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/park285/mchess-live/internal/analysis"
	"github.com/park285/mchess-live/internal/live"
	"github.com/park285/mchess-live/internal/protocol"
)

type fakeBackend struct {
	view   live.View
	result live.IntentResult
	got    []live.Intent
}

func (f *fakeBackend) View(context.Context) (live.View, error) { return f.view, nil }

func (f *fakeBackend) Submit(_ context.Context, in live.Intent) (live.IntentResult, error) {
	f.got = append(f.got, in)
	return f.result, nil
}

func TestIntentMapping(t *testing.T) {
	cases := []struct {
		line string
		want live.Intent
	}{
		{"new", live.Intent{Kind: live.IntentNewGame}},
		{"fwd", live.Intent{Kind: live.IntentMoveForward}},
		{"analyse", live.Intent{Kind: live.IntentAnalyse}},
		{"fetch", live.Intent{Kind: live.IntentPositionFetch}},
		{"fetch ChessLinkAgent", live.Intent{Kind: live.IntentPositionFetch, Payload: live.Payload{From: "ChessLinkAgent"}}},
		{"fen 8/8/8/8/8/8/8/K6k w - - 0 1", live.Intent{Kind: live.IntentImportFEN, Payload: live.Payload{FEN: "8/8/8/8/8/8/8/K6k w - - 0 1"}}},
		{"player Black stockfish", live.Intent{Kind: live.IntentSelectPlayer, Payload: live.Payload{Color: protocol.Black, Name: "stockfish"}}},
		{"move e7e8q", live.Intent{Kind: live.IntentDrop, Payload: live.Payload{From: "e7", To: "e8", Promotion: "q"}}},
	}
	for _, tc := range cases {
		in, ok, err := Intent(strings.Fields(tc.line))
		if err != nil || !ok {
			t.Fatalf("%q: ok=%v err=%v", tc.line, ok, err)
		}
		if in != tc.want {
			t.Fatalf("%q: got %+v want %+v", tc.line, in, tc.want)
		}
	}

	for _, bad := range []string{"move e9e4", "player green human", "fen", "player white"} {
		if _, _, err := Intent(strings.Fields(bad)); err == nil {
			t.Fatalf("%q should fail", bad)
		}
	}
	if _, ok, _ := Intent([]string{"view"}); ok {
		t.Fatalf("view has no intent")
	}
}

func TestExecuteSubmits(t *testing.T) {
	b := &fakeBackend{result: live.IntentResult{OK: true, Move: "e2e4"}}
	var out bytes.Buffer
	c := New(b, &out, nil)

	if err := c.Execute(context.Background(), "m e2e4"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(b.got) != 1 || b.got[0].Kind != live.IntentDrop {
		t.Fatalf("unexpected intents %+v", b.got)
	}
	if !strings.Contains(out.String(), "sent e2e4") {
		t.Fatalf("output = %q", out.String())
	}

	b.result = live.IntentResult{Error: "no channel to carry the move"}
	if err := c.Execute(context.Background(), "move g1f3"); err == nil || !strings.Contains(err.Error(), "no channel") {
		t.Fatalf("rejection should surface, got %v", err)
	}
}

func TestExecuteMisc(t *testing.T) {
	b := &fakeBackend{view: live.View{
		Connection: live.ConnectionView{Status: live.StatusConnected, Session: "s-1"},
		Analysis: live.AnalysisView{
			Actors: []string{"A", "B", "C"},
			Slots:  []analysis.Slot{{Actor: "A", Header: " | Depth: 3 |"}, {Actor: "B"}},
		},
	}}
	var out bytes.Buffer
	c := New(b, &out, nil)
	ctx := context.Background()

	if err := c.Execute(ctx, "view"); err != nil {
		t.Fatalf("view: %v", err)
	}
	if s := out.String(); !strings.Contains(s, "connected") || !strings.Contains(s, "(1 more analysing)") {
		t.Fatalf("view output = %q", s)
	}
	if err := c.Execute(ctx, "help"); err != nil || !strings.Contains(out.String(), "player") {
		t.Fatalf("help: %v", err)
	}
	if err := c.Execute(ctx, "quit"); !errors.Is(err, ErrQuit) {
		t.Fatalf("quit returned %v", err)
	}
	if err := c.Execute(ctx, "resign"); err == nil {
		t.Fatalf("unknown command should fail")
	}
	if err := c.Execute(ctx, "   "); err != nil {
		t.Fatalf("blank line: %v", err)
	}
	if len(b.got) != 0 {
		t.Fatalf("no intents expected, got %+v", b.got)
	}
}

package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSplitMalformed(t *testing.T) {
	for _, raw := range []string{"not-json", "[1,2]", "null", `{"cmd": 3}`} {
		if _, err := Split([]byte(raw)); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Split(%q): expected ErrMalformed, got %v", raw, err)
		}
	}
}

func TestSplitNoCommandAndLegacy(t *testing.T) {
	f, err := Split([]byte(`{"fen":"8/8/8/8/8/8/8/8 w - - 0 1","attribs":{},"pgn":""}`))
	if !errors.Is(err, ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
	if got := ClassifyLegacy(f); got != LegacyBoard {
		t.Fatalf("ClassifyLegacy = %q, want %q", got, LegacyBoard)
	}

	f, err = Split([]byte(`{"info":{"actor":"sf","variant":["e2e4"]}}`))
	if !errors.Is(err, ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
	if got := ClassifyLegacy(f); got != LegacyInfo {
		t.Fatalf("ClassifyLegacy = %q, want %q", got, LegacyInfo)
	}

	f, _ = Split([]byte(`{"hello":"world"}`))
	if got := ClassifyLegacy(f); got != "" {
		t.Fatalf("ClassifyLegacy = %q, want empty", got)
	}
}

func TestDecodeCurrentMoveInfo(t *testing.T) {
	raw := []byte(`{"cmd":"current_move_info","actor":"stockfish","multipv_index":1,
		"san_variant":[[12,"..","Nf6"],[13,"O-O","Be7"],[14,"Re1"]],
		"preview_fen":"8/8/8/8/8/8/8/8 w - - 0 1","score":0.35,"nps":1200000,"depth":20,"seldepth":31}`)
	var info CurrentMoveInfo
	if err := Decode(raw, &info); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.Score == nil || !info.Score.IsNumeric() || info.Score.String() != "0.35" {
		t.Fatalf("unexpected score: %+v", info.Score)
	}
	if info.TBHits != nil {
		t.Fatalf("tbhits should be absent")
	}
	if len(info.SanVariant) != 3 {
		t.Fatalf("expected 3 moves, got %d", len(info.SanVariant))
	}
	first := info.SanVariant[0]
	if first.Number != 12 || first.White != BlackFirst || first.Black != "Nf6" || !first.HasBlack {
		t.Fatalf("unexpected first move: %+v", first)
	}
	if last := info.SanVariant[2]; last.HasBlack || last.White != "Re1" {
		t.Fatalf("unexpected last move: %+v", last)
	}
}

func TestSanVariantKeyedWithFen(t *testing.T) {
	var v SanVariant
	raw := `{"1":[2,"Nf3","Nc6"],"0":[1,"e4","e5"],"fen":"ignored"}`
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(v) != 2 || v[0].White != "e4" || v[1].White != "Nf3" {
		t.Fatalf("unexpected order: %+v", v)
	}
}

func TestScoreText(t *testing.T) {
	var s Score
	if err := json.Unmarshal([]byte(`"#3"`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.IsNumeric() || s.String() != "#3" {
		t.Fatalf("unexpected score %+v", s)
	}
	if err := json.Unmarshal([]byte(`""`), &s); err != nil || !s.IsEmpty() {
		t.Fatalf("expected empty score, got %+v err=%v", s, err)
	}
	if err := json.Unmarshal([]byte(`1.0`), &s); err != nil || s.String() != "1" {
		t.Fatalf("expected 1, got %q err=%v", s.String(), err)
	}
}

func TestDecodeValidation(t *testing.T) {
	var info CurrentMoveInfo
	if err := Decode([]byte(`{"actor":"sf","multipv_index":0}`), &info); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for multipv 0, got %v", err)
	}
	var vm ValidMoves
	if err := Decode([]byte(`{"valid_moves":["e2e4","zz"]}`), &vm); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for bad move code, got %v", err)
	}
	var st AgentState
	if err := Decode([]byte(`{"actor":"sf","state":"sleeping"}`), &st); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown state, got %v", err)
	}
	var gs GameStats
	if err := Decode([]byte(`{"stats":[{"move_number":1,"color":"WHITE","score":0.2}]}`), &gs); err != nil {
		t.Fatalf("upper-case color should be accepted: %v", err)
	}
	if gs.Stats[0].Color != White {
		t.Fatalf("color not normalized: %q", gs.Stats[0].Color)
	}
}

func TestOutboundOmitsUnusedFields(t *testing.T) {
	b, err := json.Marshal(Outbound{Cmd: CmdMove, Actor: "WebAgent", UCI: "e7e8q"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"cmd":"move","actor":"WebAgent","uci":"e7e8q"}` {
		t.Fatalf("unexpected frame %s", b)
	}
}

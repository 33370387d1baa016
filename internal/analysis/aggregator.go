package analysis

import (
	"errors"
	"sort"
	"strings"

	"github.com/park285/mchess-live/internal/position"
	"github.com/park285/mchess-live/internal/protocol"
	"go.uber.org/zap"
)

// MaxSlots is the number of actors shown at once. Further actors are tracked, not shown.
const MaxSlots = 2

var ErrInvalidEntry = errors.New("analysis entry needs an actor and a multipv index >= 1")

// Variant is the payload of one principal-variation report.
type Variant struct {
	PreviewFEN string
	Score      *protocol.Score
	NPS        *int64
	Depth      *int
	SelDepth   *int
	TBHits     *int64
	Moves      protocol.SanVariant
}

// FromInfo lifts a current_move_info message into a Variant.
func FromInfo(info protocol.CurrentMoveInfo) Variant {
	return Variant{
		PreviewFEN: info.PreviewFEN,
		Score:      info.Score,
		NPS:        info.NPS,
		Depth:      info.Depth,
		SelDepth:   info.SelDepth,
		TBHits:     info.TBHits,
		Moves:      info.SanVariant,
	}
}

// Entry is the stored report for one (actor, multipv index).
type Entry struct {
	Actor        string                 `json:"actor"`
	MultipvIndex int                    `json:"multipv_index"`
	Score        *protocol.Score        `json:"score,omitempty"`
	NPS          *int64                 `json:"nps,omitempty"`
	Depth        *int                   `json:"depth,omitempty"`
	SelDepth     *int                   `json:"seldepth,omitempty"`
	TBHits       *int64                 `json:"tbhits,omitempty"`
	Moves        []protocol.VariantMove `json:"moves"`
	ReferenceFEN string                 `json:"reference_fen,omitempty"`
	Line         Line                   `json:"line"`
}

// Slot is one of the fixed display positions.
type Slot struct {
	Index        int    `json:"index"`
	Actor        string `json:"actor"`
	Header       string `json:"header"`
	ReferenceFEN string `json:"reference_fen"`
	Lines        []Line `json:"lines"`
	Block        string `json:"block"`
}

// Aggregator buffers principal variations per actor and assigns display slots in
// first-seen order. Not safe for concurrent use.
type Aggregator struct {
	order   []string
	entries map[string]map[int]Entry
	headers map[string]string
	refs    map[string]string
	baseFEN string

	logger *zap.Logger
}

func New(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{logger: logger}
	a.clear()
	return a
}

func (a *Aggregator) clear() {
	a.order = nil
	a.entries = make(map[string]map[int]Entry)
	a.headers = make(map[string]string)
	a.refs = make(map[string]string)
}

// ResetAnalysis drops every buffered variation and slot assignment. fen becomes the
// preview position until an actor reports its own.
func (a *Aggregator) ResetAnalysis(fen string) {
	a.clear()
	a.baseFEN = fen
	a.logger.Debug("analysis_reset", zap.String("fen", fen))
}

// Apply stores the variation at (actor, index), replacing any earlier one.
func (a *Aggregator) Apply(actor string, index int, v Variant) (Entry, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" || index < 1 {
		return Entry{}, ErrInvalidEntry
	}

	byIndex, seen := a.entries[actor]
	if !seen {
		byIndex = make(map[int]Entry)
		a.entries[actor] = byIndex
		a.order = append(a.order, actor)
		if len(a.order) > MaxSlots {
			a.logger.Debug("analysis_actor_hidden", zap.String("actor", actor), zap.Int("rank", len(a.order)))
		}
	}

	if index == 1 {
		switch {
		case v.PreviewFEN == "":
		case position.ValidFEN(v.PreviewFEN):
			a.refs[actor] = v.PreviewFEN
		default:
			delete(a.refs, actor)
			a.logger.Warn("analysis_preview_fen_invalid", zap.String("actor", actor), zap.String("fen", v.PreviewFEN))
		}
	}
	a.headers[actor] = Header(index, v)

	e := Entry{
		Actor:        actor,
		MultipvIndex: index,
		Score:        v.Score,
		NPS:          v.NPS,
		Depth:        v.Depth,
		SelDepth:     v.SelDepth,
		TBHits:       v.TBHits,
		Moves:        append([]protocol.VariantMove(nil), v.Moves...),
		Line:         RenderLine(v.Score, v.Moves),
	}
	if index == 1 {
		e.ReferenceFEN = a.refs[actor]
	}
	byIndex[index] = e
	return e, nil
}

// Actors lists every actor seen since the last reset, in first-seen order.
func (a *Aggregator) Actors() []string {
	return append([]string(nil), a.order...)
}

// Entries returns an actor's variations ordered by multipv index.
func (a *Aggregator) Entries(actor string) []Entry {
	byIndex := a.entries[actor]
	idx := make([]int, 0, len(byIndex))
	for i := range byIndex {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]Entry, 0, len(idx))
	for _, i := range idx {
		out = append(out, byIndex[i])
	}
	return out
}

// Slots returns the visible actors: at most MaxSlots, in first-seen order.
func (a *Aggregator) Slots() []Slot {
	n := len(a.order)
	if n > MaxSlots {
		n = MaxSlots
	}
	out := make([]Slot, 0, n)
	for i := 0; i < n; i++ {
		actor := a.order[i]
		entries := a.Entries(actor)
		lines := make([]Line, len(entries))
		texts := make([]string, len(entries))
		for j, e := range entries {
			lines[j] = e.Line
			texts[j] = e.Line.Text
		}
		ref := a.refs[actor]
		if ref == "" {
			ref = a.baseFEN
		}
		out = append(out, Slot{
			Index:        i,
			Actor:        actor,
			Header:       a.headers[actor],
			ReferenceFEN: ref,
			Lines:        lines,
			Block:        strings.Join(texts, "\n"),
		})
	}
	return out
}

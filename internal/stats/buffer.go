package stats

import "github.com/park285/mchess-live/internal/protocol"

// Sample is one per-move statistic reported by the server.
type Sample struct {
	MoveNumber     int             `json:"move_number"`
	Side           protocol.Side   `json:"side"`
	HalfmoveNumber int             `json:"halfmove_number,omitempty"`
	Player         string          `json:"player,omitempty"`
	Score          *protocol.Score `json:"score,omitempty"`
	NPS            *int64          `json:"nps,omitempty"`
	Depth          *int            `json:"depth,omitempty"`
	SelDepth       *int            `json:"seldepth,omitempty"`
	TBHits         *int64          `json:"tbhits,omitempty"`
}

// FromEntry converts a game_stats entry.
func FromEntry(e protocol.StatEntry) Sample {
	return Sample{
		MoveNumber:     e.MoveNumber,
		Side:           e.Color,
		HalfmoveNumber: e.HalfmoveNumber,
		Player:         e.Player,
		Score:          e.Score,
		NPS:            e.NPS,
		Depth:          e.Depth,
		SelDepth:       e.SelDepth,
		TBHits:         e.TBHits,
	}
}

// Buffer is an append-only sample sequence. No dedup, no reordering.
type Buffer struct {
	samples []Sample
}

func (b *Buffer) Append(s Sample) { b.samples = append(b.samples, s) }

func (b *Buffer) Reset() { b.samples = nil }

func (b *Buffer) Len() int { return len(b.samples) }

// Samples returns a copy of the full ordered sequence.
func (b *Buffer) Samples() []Sample {
	return append([]Sample(nil), b.samples...)
}

package analysis

import (
	"strconv"
	"strings"

	"github.com/park285/mchess-live/internal/protocol"
)

// Line is a rendered principal variation.
type Line struct {
	Lead  string     `json:"lead"`
	Moves []MoveCell `json:"moves"`
	Text  string     `json:"text"`
}

// MoveCell is one numbered move pair. Emphasis names the side whose move is the one the
// engine would play now; it is set on the first cell only.
type MoveCell struct {
	Number   int           `json:"number"`
	White    string        `json:"white"`
	Black    string        `json:"black,omitempty"`
	Emphasis protocol.Side `json:"emphasis,omitempty"`
}

const blankLead = "    "

// Header summarizes whichever statistics are present. The score belongs to the primary
// line only.
func Header(index int, v Variant) string {
	var sb strings.Builder
	if v.NPS != nil {
		sb.WriteString(" | Nps: " + strconv.FormatInt(*v.NPS, 10))
	}
	if index == 1 && v.Score != nil {
		sb.WriteString(" | Score: " + v.Score.String())
	}
	if v.Depth != nil {
		sb.WriteString(" | Depth: " + strconv.Itoa(*v.Depth))
		if v.SelDepth != nil {
			sb.WriteString("/" + strconv.Itoa(*v.SelDepth))
		}
	}
	if v.TBHits != nil {
		sb.WriteString(" | TbHits: " + strconv.FormatInt(*v.TBHits, 10))
	}
	sb.WriteString(" |")
	return sb.String()
}

// RenderLine lays out a move sequence. The first move is emphasized; a ".." placeholder in
// the first white slot means black moves first and takes the emphasis.
func RenderLine(score *protocol.Score, moves protocol.SanVariant) Line {
	lead := blankLead
	if score != nil && !score.IsEmpty() {
		lead = "[" + score.String() + "]"
	}

	cells := make([]MoveCell, 0, len(moves))
	parts := make([]string, 0, len(moves))
	for i, mv := range moves {
		cell := MoveCell{
			Number: mv.Number,
			White:  nonBreaking(mv.White),
			Black:  nonBreaking(mv.Black),
		}
		if i == 0 {
			if mv.White == protocol.BlackFirst {
				cell.Emphasis = protocol.Black
			} else {
				cell.Emphasis = protocol.White
			}
		}
		cells = append(cells, cell)

		part := strconv.Itoa(cell.Number) + ". " + cell.White
		if cell.Black != "" {
			part += " " + cell.Black
		}
		parts = append(parts, part)
	}

	text := lead
	if len(parts) > 0 {
		text += "  " + strings.Join(parts, " ")
	}
	return Line{Lead: lead, Moves: cells, Text: text}
}

// nonBreaking keeps castling and similar dashed moves on one line.
func nonBreaking(s string) string {
	return strings.ReplaceAll(s, "-", "‑")
}

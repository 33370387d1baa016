package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Score is an engine evaluation: either a number (pawns) or a text such as a mate
// indicator. The zero value is an empty text score.
type Score struct {
	value   float64
	text    string
	numeric bool
}

func NumericScore(v float64) Score { return Score{value: v, numeric: true} }
func TextScore(s string) Score { return Score{text: s} }

func (s Score) IsNumeric() bool { return s.numeric }
func (s Score) Value() float64 { return s.value }
func (s Score) IsEmpty() bool { return !s.numeric && s.text == "" }

func (s Score) String() string {
	if s.numeric {
		return strconv.FormatFloat(s.value, 'f', -1, 64)
	}
	return s.text
}

func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = Score{}
		return nil
	}
	if b[0] == '"' {
		var txt string
		if err := json.Unmarshal(b, &txt); err != nil {
			return err
		}
		*s = TextScore(txt)
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}
	*s = NumericScore(v)
	return nil
}

func (s Score) MarshalJSON() ([]byte, error) {
	if s.numeric {
		return []byte(strconv.FormatFloat(s.value, 'f', -1, 64)), nil
	}
	return json.Marshal(s.text)
}

// Side is white or black. The server sends either case.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

func (s *Side) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Side(strings.ToLower(strings.TrimSpace(raw)))
	return nil
}

// VariantMove is one numbered move pair of a principal variation. White is ".." when the
// variation starts with black to move.
type VariantMove struct {
	Number   int    `json:"number"`
	White    string `json:"white"`
	Black    string `json:"black,omitempty"`
	HasBlack bool   `json:"-"`
}

// BlackFirst is the white placeholder used when black moves first.
const BlackFirst = ".."

// SanVariant is the ordered move list of current_move_info. On the wire it is either an
// array of [moveNumber, text1, text2?] entries or an object keyed by position which may
// also carry a non-move "fen" key.
type SanVariant []VariantMove

func (v *SanVariant) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = nil
		return nil
	}
	var entries []json.RawMessage
	switch b[0] {
	case '[':
		if err := json.Unmarshal(b, &entries); err != nil {
			return fmt.Errorf("san_variant: %w", err)
		}
	case '{':
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(b, &keyed); err != nil {
			return fmt.Errorf("san_variant: %w", err)
		}
		keys := make([]int, 0, len(keyed))
		for k := range keyed {
			if k == "fen" {
				continue
			}
			n, err := strconv.Atoi(k)
			if err != nil {
				return fmt.Errorf("san_variant: unexpected key %q", k)
			}
			keys = append(keys, n)
		}
		sort.Ints(keys)
		for _, k := range keys {
			entries = append(entries, keyed[strconv.Itoa(k)])
		}
	default:
		return fmt.Errorf("san_variant: unexpected %s", string(b[:1]))
	}

	out := make(SanVariant, 0, len(entries))
	for i, raw := range entries {
		mv, err := decodeVariantMove(raw)
		if err != nil {
			return fmt.Errorf("san_variant[%d]: %w", i, err)
		}
		out = append(out, mv)
	}
	*v = out
	return nil
}

func decodeVariantMove(raw json.RawMessage) (VariantMove, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return VariantMove{}, err
	}
	if len(parts) < 2 {
		return VariantMove{}, fmt.Errorf("need move number and at least one move, got %d fields", len(parts))
	}
	num, err := decodeMoveNumber(parts[0])
	if err != nil {
		return VariantMove{}, err
	}
	mv := VariantMove{Number: num}
	if err := json.Unmarshal(parts[1], &mv.White); err != nil {
		return VariantMove{}, fmt.Errorf("move text: %w", err)
	}
	if len(parts) > 2 {
		if err := json.Unmarshal(parts[2], &mv.Black); err != nil {
			return VariantMove{}, fmt.Errorf("move text: %w", err)
		}
		mv.HasBlack = true
	}
	return mv, nil
}

func decodeMoveNumber(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("move number: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "."))
	if err != nil {
		return 0, fmt.Errorf("move number: %w", err)
	}
	return n, nil
}

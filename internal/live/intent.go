package live

import "github.com/park285/mchess-live/internal/protocol"

// Intent kinds produced by a renderer or the operator console.
const (
	IntentNewGame       = "new_game"
	IntentMoveStart     = "move_start"
	IntentMoveBack      = "move_back"
	IntentMoveForward   = "move_forward"
	IntentMoveEnd       = "move_end"
	IntentStop          = "stop"
	IntentAnalyse       = "analyse"
	IntentPositionFetch = "position_fetch"
	IntentImportFEN     = "import_fen"
	IntentSelectPlayer  = "select_player"
	IntentDragStart     = "drag_start"
	IntentDrop          = "drop"
)

var ErrBadIntent = errf("bad intent")

// Intent is a UI-toolkit independent command.
type Intent struct {
	Kind    string  `json:"kind" validate:"required,oneof=new_game move_start move_back move_forward move_end stop analyse position_fetch import_fen select_player drag_start drop"`
	Payload Payload `json:"payload"`
}

// Payload carries the fields a kind needs; unused fields stay empty. From is the source
// agent for position_fetch and the source square for drop.
type Payload struct {
	From      string        `json:"from,omitempty"`
	To        string        `json:"to,omitempty"`
	Square    string        `json:"square,omitempty"`
	Promotion string        `json:"promotion,omitempty"`
	FEN       string        `json:"fen,omitempty"`
	Color     protocol.Side `json:"color,omitempty" validate:"omitempty,oneof=white black"`
	Name      string        `json:"name,omitempty"`
}

// IntentResult reports what an intent did. For drag_start OK is the allow/deny answer; for
// drop Move is the code sent.
type IntentResult struct {
	OK    bool   `json:"ok"`
	Move  string `json:"move,omitempty"`
	Error string `json:"error,omitempty"`
}

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error { return staticErr(s) }

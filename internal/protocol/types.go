package protocol

// Inbound command tags.
const (
	CmdAgentState      = "agent_state"
	CmdDisplayBoard    = "display_board"
	CmdCurrentMoveInfo = "current_move_info"
	CmdEngineList      = "engine_list"
	CmdMove            = "move"
	CmdValidMoves      = "valid_moves"
	CmdGameStats       = "game_stats"
)

// Outbound command tags. CmdMove is shared with the inbound table.
const (
	CmdNewGame       = "new_game"
	CmdMoveStart     = "move_start"
	CmdMoveBack      = "move_back"
	CmdMoveForward   = "move_forward"
	CmdMoveEnd       = "move_end"
	CmdStop          = "stop"
	CmdAnalyse       = "analyse"
	CmdPositionFetch = "position_fetch"
	CmdImportFEN     = "import_fen"
	CmdSelectPlayer  = "select_player"
)

// Agent states reported in agent_state.
const (
	StateOnline  = "online"
	StateOffline = "offline"
	StateBusy    = "busy"
	StateIdle    = "idle"
)

// ClassEngine marks agent_state messages originating from analysis engines.
const ClassEngine = "engine"

type AgentState struct {
	Actor   string `json:"actor" validate:"required"`
	State   string `json:"state" validate:"required,oneof=online offline busy idle"`
	Class   string `json:"class,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsEngine reports whether the sender belongs to the engine class.
func (a AgentState) IsEngine() bool { return a.Class == ClassEngine }

type Attribs struct {
	WhiteName string `json:"white_name"`
	BlackName string `json:"black_name"`
	Unicode   bool   `json:"unicode,omitempty"`
	Invert    bool   `json:"invert,omitempty"`
}

type DisplayBoard struct {
	FEN     string  `json:"fen" validate:"required"`
	Attribs Attribs `json:"attribs"`
	PGN     string  `json:"pgn"`
}

type CurrentMoveInfo struct {
	Actor        string     `json:"actor" validate:"required"`
	MultipvIndex int        `json:"multipv_index" validate:"min=1"`
	SanVariant   SanVariant `json:"san_variant"`
	PreviewFEN   string     `json:"preview_fen,omitempty"`
	Score        *Score     `json:"score,omitempty"`
	NPS          *int64     `json:"nps,omitempty"`
	Depth        *int       `json:"depth,omitempty"`
	SelDepth     *int       `json:"seldepth,omitempty"`
	TBHits       *int64     `json:"tbhits,omitempty"`
}

// EngineMeta is one entry of an engine_list catalog.
type EngineMeta struct {
	Name    string         `json:"name"`
	Active  bool           `json:"active"`
	Options map[string]any `json:"options,omitempty"`
}

type EngineList struct {
	Actor   string                `json:"actor,omitempty"`
	Engines map[string]EngineMeta `json:"engines" validate:"required"`
}

// MoveEcho is the server's move broadcast. It is acknowledged and not applied.
type MoveEcho struct {
	Actor  string `json:"actor,omitempty"`
	UCI    string `json:"uci,omitempty"`
	Result string `json:"result,omitempty"`
}

type ValidMoves struct {
	Actor      string   `json:"actor,omitempty"`
	ValidMoves []string `json:"valid_moves" validate:"dive,uci"`
}

type StatEntry struct {
	MoveNumber     int    `json:"move_number" validate:"min=0"`
	Color          Side   `json:"color" validate:"oneof=white black"`
	HalfmoveNumber int    `json:"halfmove_number,omitempty"`
	Player         string `json:"player,omitempty"`
	Score          *Score `json:"score,omitempty"`
	NPS            *int64 `json:"nps,omitempty"`
	Depth          *int   `json:"depth,omitempty"`
	SelDepth       *int   `json:"seldepth,omitempty"`
	TBHits         *int64 `json:"tbhits,omitempty"`
}

type GameStats struct {
	Actor string      `json:"actor,omitempty"`
	Stats []StatEntry `json:"stats" validate:"dive"`
}

// Outbound is the single outbound frame shape; unused fields are omitted.
type Outbound struct {
	Cmd   string `json:"cmd"`
	Actor string `json:"actor"`
	From  string `json:"from,omitempty"`
	FEN   string `json:"fen,omitempty"`
	Color string `json:"color,omitempty"`
	Name  string `json:"name,omitempty"`
	UCI   string `json:"uci,omitempty"`
}

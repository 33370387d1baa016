package position

import (
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/mchess-live/internal/protocol"
	"go.uber.org/zap"
)

// Resetter is notified once per accepted position change.
type Resetter interface {
	ResetAnalysis(fen string)
}

// State holds the single authoritative board position.
type State struct {
	fen      string
	pgn      string
	attribs  protocol.Attribs
	title    string
	tokens   []Token
	turn     protocol.Side
	fullmove int
	parsed   bool

	resetters []Resetter
	logger    *zap.Logger
}

// Snapshot is the display-ready read model of the position.
type Snapshot struct {
	FEN       string        `json:"fen"`
	Title     string        `json:"title"`
	WhiteName string        `json:"white_name"`
	BlackName string        `json:"black_name"`
	Turn      protocol.Side `json:"turn,omitempty"`
	FullMove  int           `json:"full_move,omitempty"`
	Notation  []Token       `json:"notation"`
	PGN       string        `json:"pgn"`
}

func New(logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{logger: logger}
}

// OnChange registers r to be reset whenever the position changes.
func (s *State) OnChange(r Resetter) {
	if r != nil {
		s.resetters = append(s.resetters, r)
	}
}

// FEN returns the held position, "" before the first update.
func (s *State) FEN() string { return s.fen }

// Title is "<white> - <black>".
func (s *State) Title() string { return s.title }

// Apply stores a new position. An unchanged FEN is a no-op and returns false, leaving
// notation and analysis untouched.
func (s *State) Apply(fen string, attribs protocol.Attribs, pgn string) bool {
	if fen == s.fen {
		s.logger.Debug("position_unchanged", zap.String("fen", fen))
		return false
	}
	s.fen = fen
	s.pgn = pgn
	s.attribs = attribs
	s.title = attribs.WhiteName + " - " + attribs.BlackName
	s.tokens = Tokenize(pgn)
	s.turn, s.fullmove, s.parsed = describe(fen)
	if !s.parsed {
		s.logger.Warn("position_fen_unparsed", zap.String("fen", fen))
	}
	for _, r := range s.resetters {
		r.ResetAnalysis(fen)
	}
	s.logger.Info("position_changed", zap.String("fen", fen), zap.String("title", s.title))
	return true
}

func (s *State) Snapshot() Snapshot {
	tokens := make([]Token, len(s.tokens))
	copy(tokens, s.tokens)
	return Snapshot{
		FEN:       s.fen,
		Title:     s.title,
		WhiteName: s.attribs.WhiteName,
		BlackName: s.attribs.BlackName,
		Turn:      s.turn,
		FullMove:  s.fullmove,
		Notation:  tokens,
		PGN:       s.pgn,
	}
}

// ValidFEN reports whether fen parses as a chess position.
func ValidFEN(fen string) bool {
	_, _, ok := describe(fen)
	return ok
}

func describe(fen string) (protocol.Side, int, bool) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return "", 0, false
	}
	game := nchess.NewGame(opt)
	turn := protocol.White
	if game.Position().Turn() == nchess.Black {
		turn = protocol.Black
	}
	fullmove := 0
	if fields := strings.Fields(fen); len(fields) >= 6 {
		fullmove, _ = strconv.Atoi(fields[5])
	}
	return turn, fullmove, true
}

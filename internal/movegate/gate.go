package movegate

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// State of the gate: idle until the server supplies a legal-move set.
type State string

const (
	Idle  State = "idle"
	Armed State = "armed"
)

var (
	ErrIllegalMove = errf("move is not in the legal-move set")
	ErrUnavailable = errf("no channel to carry the move")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error { return staticErr(s) }

// MoveSender carries an accepted move to the server. dispatch.Outbox implements it.
type MoveSender interface {
	Ready() bool
	Move(ctx context.Context, uci string) error
}

// Gate arbitrates user move attempts against the server's legal moves. Not safe for
// concurrent use.
type Gate struct {
	state  State
	legal  []string
	sender MoveSender
	logger *zap.Logger
}

func New(sender MoveSender, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{state: Idle, sender: sender, logger: logger}
}

func (g *Gate) State() State { return g.state }

// Legal returns a copy of the current legal-move set.
func (g *Gate) Legal() []string { return append([]string(nil), g.legal...) }

// SetLegalMoves replaces the legal-move set in full.
func (g *Gate) SetLegalMoves(moves []string) {
	g.legal = append(g.legal[:0:0], moves...)
	g.state = Armed
	g.logger.Debug("movegate_armed", zap.Int("moves", len(g.legal)))
}

// TryStart reports whether a drag may begin from square.
func (g *Gate) TryStart(square string) bool {
	square = strings.ToLower(strings.TrimSpace(square))
	if len(square) != 2 {
		return false
	}
	for _, mv := range g.legal {
		if strings.HasPrefix(mv, square) {
			return true
		}
	}
	return false
}

// TryComplete accepts a drop from→to. The first matching legal entry is sent, promotion
// suffix included, and the set is cleared until the server sends the next one.
func (g *Gate) TryComplete(ctx context.Context, from, to string) (string, error) {
	return g.complete(ctx, from, to, "")
}

// TryCompletePromotion is TryComplete preferring the entry promoting to piece.
func (g *Gate) TryCompletePromotion(ctx context.Context, from, to, piece string) (string, error) {
	return g.complete(ctx, from, to, strings.ToLower(strings.TrimSpace(piece)))
}

func (g *Gate) complete(ctx context.Context, from, to, piece string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(from) + strings.TrimSpace(to))
	mv, ok := g.match(key, piece)
	if !ok {
		g.logger.Info("movegate_rejected", zap.String("attempt", key), zap.Error(ErrIllegalMove))
		return "", ErrIllegalMove
	}
	if g.sender == nil || !g.sender.Ready() {
		g.logger.Warn("movegate_rejected", zap.String("move", mv), zap.Error(ErrUnavailable))
		return "", ErrUnavailable
	}
	if err := g.sender.Move(ctx, mv); err != nil {
		g.logger.Warn("movegate_send_failed", zap.String("move", mv), zap.Error(err))
		return "", ErrUnavailable
	}
	g.legal = nil
	g.state = Idle
	g.logger.Info("movegate_accepted", zap.String("move", mv))
	return mv, nil
}

func (g *Gate) match(key, piece string) (string, bool) {
	if len(key) != 4 {
		return "", false
	}
	first := ""
	for _, mv := range g.legal {
		if len(mv) < 4 || mv[:4] != key {
			continue
		}
		if piece == "" || strings.EqualFold(mv[4:], piece) {
			return mv, true
		}
		if first == "" {
			first = mv
		}
	}
	return first, first != ""
}

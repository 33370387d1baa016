package live

import (
	"context"
	"fmt"
	"strings"

	"github.com/park285/mchess-live/internal/analysis"
	"github.com/park285/mchess-live/internal/dispatch"
	"github.com/park285/mchess-live/internal/movegate"
	"github.com/park285/mchess-live/internal/position"
	"github.com/park285/mchess-live/internal/protocol"
	"github.com/park285/mchess-live/internal/registry"
	"github.com/park285/mchess-live/internal/stats"
	"github.com/park285/mchess-live/internal/wsconn"
	"go.uber.org/zap"
)

// Connection status shown to the operator.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Options names the agents the client talks about.
type Options struct {
	// PositionSource is the agent position_fetch asks by default.
	PositionSource string
}

// State is the client's single session object. It is created once at startup and owned
// by a Loop; nothing else may call its methods concurrently.
type State struct {
	opts Options

	status  Status
	session string

	dispatcher *dispatch.Dispatcher
	outbox     *dispatch.Outbox
	position   *position.State
	analysis   *analysis.Aggregator
	gate       *movegate.Gate
	registry   *registry.Registry
	stats      *stats.Buffer
	lastEcho   *protocol.MoveEcho

	logger *zap.Logger
}

// NewState wires the components together. outbox carries every outbound command.
func NewState(opts Options, outbox *dispatch.Outbox, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(opts.PositionSource) == "" {
		opts.PositionSource = "ChessLinkAgent"
	}
	s := &State{
		opts:       opts,
		status:     StatusDisconnected,
		dispatcher: dispatch.New(logger.Named("dispatch")),
		outbox:     outbox,
		position:   position.New(logger.Named("position")),
		analysis:   analysis.New(logger.Named("analysis")),
		gate:       movegate.New(outbox, logger.Named("movegate")),
		registry:   registry.New(logger.Named("registry")),
		stats:      &stats.Buffer{},
		logger:     logger,
	}
	s.position.OnChange(s.analysis)
	s.register()
	return s
}

func (s *State) register() {
	d := s.dispatcher
	dispatch.Handle(d, protocol.CmdAgentState, s.onAgentState)
	dispatch.Handle(d, protocol.CmdDisplayBoard, s.onDisplayBoard)
	dispatch.Handle(d, protocol.CmdCurrentMoveInfo, s.onCurrentMoveInfo)
	dispatch.Handle(d, protocol.CmdEngineList, s.onEngineList)
	dispatch.Handle(d, protocol.CmdMove, s.onMove)
	dispatch.Handle(d, protocol.CmdValidMoves, s.onValidMoves)
	dispatch.Handle(d, protocol.CmdGameStats, s.onGameStats)
}

// HandleFrame runs one inbound frame through the dispatcher.
func (s *State) HandleFrame(raw []byte) dispatch.Outcome {
	return s.dispatcher.Dispatch(raw)
}

// ConnectionChanged applies a lifecycle transition of the channel.
func (s *State) ConnectionChanged(state wsconn.State, session string) {
	switch state {
	case wsconn.StateOpen:
		s.status = StatusConnected
		s.session = session
		s.logger.Info("live_connected", zap.String("session", session), zap.Bool("outbox_ready", s.outbox.Ready()))
	case wsconn.StateConnecting:
		s.status = StatusConnecting
	case wsconn.StateClosed:
		s.status = StatusDisconnected
		s.session = ""
		s.registry.InvalidateLiveness()
		s.logger.Info("live_disconnected")
	}
}

func (s *State) onAgentState(m protocol.AgentState) error {
	rec := s.registry.Observe(m.Actor, m.State, m.IsEngine(), m.Name)
	if m.Message != "" {
		s.registry.SetMessage(m.Actor, m.Message)
	}
	s.logger.Debug("agent_state", zap.String("actor", m.Actor), zap.String("state", m.State), zap.Int("ordinal", rec.Ordinal))
	return nil
}

func (s *State) onDisplayBoard(m protocol.DisplayBoard) error {
	s.position.Apply(m.FEN, m.Attribs, m.PGN)
	return nil
}

func (s *State) onCurrentMoveInfo(m protocol.CurrentMoveInfo) error {
	if _, err := s.analysis.Apply(m.Actor, m.MultipvIndex, analysis.FromInfo(m)); err != nil {
		return fmt.Errorf("current_move_info from %s: %w", m.Actor, err)
	}
	return nil
}

func (s *State) onEngineList(m protocol.EngineList) error {
	s.registry.ListEngines(m.Engines)
	return nil
}

// onMove acknowledges the server's move broadcast. The position follows in display_board.
func (s *State) onMove(m protocol.MoveEcho) error {
	echo := m
	s.lastEcho = &echo
	s.logger.Info("move_echo_ignored", zap.String("actor", m.Actor), zap.String("uci", m.UCI))
	return nil
}

func (s *State) onValidMoves(m protocol.ValidMoves) error {
	s.gate.SetLegalMoves(m.ValidMoves)
	return nil
}

// onGameStats takes the server's full list: the buffer is rebuilt in order.
func (s *State) onGameStats(m protocol.GameStats) error {
	s.stats.Reset()
	for _, e := range m.Stats {
		s.stats.Append(stats.FromEntry(e))
	}
	return nil
}

// Apply executes an intent.
func (s *State) Apply(ctx context.Context, in Intent) IntentResult {
	if err := protocol.Validate(&in); err != nil {
		return s.fail(in, fmt.Errorf("%w: %v", ErrBadIntent, err))
	}
	p := in.Payload
	var err error
	switch in.Kind {
	case IntentNewGame:
		err = s.outbox.NewGame(ctx)
	case IntentMoveStart:
		err = s.outbox.MoveStart(ctx)
	case IntentMoveBack:
		err = s.outbox.MoveBack(ctx)
	case IntentMoveForward:
		err = s.outbox.MoveForward(ctx)
	case IntentMoveEnd:
		err = s.outbox.MoveEnd(ctx)
	case IntentStop:
		err = s.outbox.Stop(ctx)
	case IntentAnalyse:
		err = s.outbox.Analyse(ctx)
	case IntentPositionFetch:
		from := strings.TrimSpace(p.From)
		if from == "" {
			from = s.opts.PositionSource
		}
		err = s.outbox.PositionFetch(ctx, from)
	case IntentImportFEN:
		fen := strings.TrimSpace(p.FEN)
		if !position.ValidFEN(fen) {
			return s.fail(in, fmt.Errorf("%w: not a FEN: %q", ErrBadIntent, fen))
		}
		err = s.outbox.ImportFEN(ctx, fen)
	case IntentSelectPlayer:
		if p.Color == "" || !s.registry.IsSelectable(p.Name) {
			return s.fail(in, fmt.Errorf("%w: cannot seat %q as %q", ErrBadIntent, p.Name, p.Color))
		}
		err = s.outbox.SelectPlayer(ctx, p.Color, p.Name)
	case IntentDragStart:
		return IntentResult{OK: s.gate.TryStart(p.Square)}
	case IntentDrop:
		var mv string
		if p.Promotion != "" {
			mv, err = s.gate.TryCompletePromotion(ctx, p.From, p.To, p.Promotion)
		} else {
			mv, err = s.gate.TryComplete(ctx, p.From, p.To)
		}
		if err != nil {
			return s.fail(in, err)
		}
		return IntentResult{OK: true, Move: mv}
	}
	if err != nil {
		return s.fail(in, err)
	}
	return IntentResult{OK: true}
}

func (s *State) fail(in Intent, err error) IntentResult {
	s.logger.Info("intent_rejected", zap.String("kind", in.Kind), zap.Error(err))
	return IntentResult{Error: err.Error()}
}

package dispatch

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/mchess-live/internal/protocol"
	"go.uber.org/zap"
)

// Sender transmits one JSON frame. wsconn.Manager implements it.
type Sender interface {
	Send(ctx context.Context, v any) error
	Connected() bool
}

var ErrNoSender = errors.New("outbox has no sender")

// Outbox serializes outbound commands, stamping each with the client's actor identity.
type Outbox struct {
	sender Sender
	actor  string
	logger *zap.Logger
}

func NewOutbox(sender Sender, actor string, logger *zap.Logger) *Outbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(actor) == "" {
		actor = "WebAgent"
	}
	return &Outbox{sender: sender, actor: actor, logger: logger}
}

// Ready reports whether a channel is open to carry commands.
func (o *Outbox) Ready() bool {
	return o != nil && o.sender != nil && o.sender.Connected()
}

func (o *Outbox) NewGame(ctx context.Context) error     { return o.simple(ctx, protocol.CmdNewGame) }
func (o *Outbox) MoveStart(ctx context.Context) error   { return o.simple(ctx, protocol.CmdMoveStart) }
func (o *Outbox) MoveBack(ctx context.Context) error    { return o.simple(ctx, protocol.CmdMoveBack) }
func (o *Outbox) MoveForward(ctx context.Context) error { return o.simple(ctx, protocol.CmdMoveForward) }
func (o *Outbox) MoveEnd(ctx context.Context) error     { return o.simple(ctx, protocol.CmdMoveEnd) }
func (o *Outbox) Stop(ctx context.Context) error        { return o.simple(ctx, protocol.CmdStop) }
func (o *Outbox) Analyse(ctx context.Context) error     { return o.simple(ctx, protocol.CmdAnalyse) }

// PositionFetch asks the server to import the position held by another agent, typically
// the hardware board.
func (o *Outbox) PositionFetch(ctx context.Context, from string) error {
	return o.send(ctx, protocol.Outbound{Cmd: protocol.CmdPositionFetch, From: from})
}

func (o *Outbox) ImportFEN(ctx context.Context, fen string) error {
	return o.send(ctx, protocol.Outbound{Cmd: protocol.CmdImportFEN, FEN: fen})
}

// SelectPlayer assigns a side to an engine identity or "human".
func (o *Outbox) SelectPlayer(ctx context.Context, color protocol.Side, name string) error {
	return o.send(ctx, protocol.Outbound{Cmd: protocol.CmdSelectPlayer, Color: string(color), Name: name})
}

// Move sends the full move code, promotion suffix included.
func (o *Outbox) Move(ctx context.Context, uci string) error {
	return o.send(ctx, protocol.Outbound{Cmd: protocol.CmdMove, UCI: uci})
}

func (o *Outbox) simple(ctx context.Context, cmd string) error {
	return o.send(ctx, protocol.Outbound{Cmd: cmd})
}

func (o *Outbox) send(ctx context.Context, msg protocol.Outbound) error {
	if o == nil || o.sender == nil {
		return ErrNoSender
	}
	msg.Actor = o.actor
	if err := o.sender.Send(ctx, &msg); err != nil {
		o.logger.Warn("outbox_send_failed", zap.String("cmd", msg.Cmd), zap.Error(err))
		return err
	}
	o.logger.Debug("outbox_sent", zap.String("cmd", msg.Cmd))
	return nil
}

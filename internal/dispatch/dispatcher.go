package dispatch

import (
	"errors"
	"fmt"

	"github.com/park285/mchess-live/internal/protocol"
	"go.uber.org/zap"
)

// Outcome tells what Dispatch did with a frame.
type Outcome int

const (
	Handled Outcome = iota
	Malformed
	Legacy
	Unknown
	Invalid
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Handled:
		return "handled"
	case Malformed:
		return "malformed"
	case Legacy:
		return "legacy"
	case Unknown:
		return "unknown"
	case Invalid:
		return "invalid"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type handlerFunc func(raw []byte) error

// Dispatcher routes inbound frames to handlers by their cmd tag. It is not safe for
// concurrent use; callers serialize Dispatch.
type Dispatcher struct {
	handlers map[string]handlerFunc
	logger   *zap.Logger
}

func New(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{handlers: make(map[string]handlerFunc), logger: logger}
}

// Handle registers fn for cmd. The frame is decoded into T and validated before fn runs.
// Registering a cmd twice replaces the earlier handler.
func Handle[T any](d *Dispatcher, cmd string, fn func(T) error) {
	d.handlers[cmd] = func(raw []byte) error {
		var msg T
		if err := protocol.Decode(raw, &msg); err != nil {
			return err
		}
		return fn(msg)
	}
}

// Commands lists the registered cmd tags.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(d.handlers))
	for cmd := range d.handlers {
		out = append(out, cmd)
	}
	return out
}

// Dispatch decodes one text frame and runs its handler. Errors are logged here and never
// returned; the connection is unaffected by anything a frame contains.
func (d *Dispatcher) Dispatch(frame []byte) (out Outcome) {
	f, err := protocol.Split(frame)
	switch {
	case errors.Is(err, protocol.ErrNoCommand):
		kind := protocol.ClassifyLegacy(f)
		d.logger.Warn("dispatch_legacy_ignored", zap.String("shape", kind), zap.Int("bytes", len(frame)))
		return Legacy
	case err != nil:
		d.logger.Error("dispatch_decode_error", zap.Error(err), zap.String("frame", truncate(string(frame), 256)))
		return Malformed
	}

	h, ok := d.handlers[f.Cmd]
	if !ok {
		d.logger.Warn("dispatch_unknown_cmd", zap.String("cmd", f.Cmd))
		return Unknown
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch_handler_panic", zap.String("cmd", f.Cmd), zap.Any("panic", r))
			out = Failed
		}
	}()
	if err := h(frame); err != nil {
		if errors.Is(err, protocol.ErrInvalid) {
			d.logger.Warn("dispatch_invalid_payload", zap.String("cmd", f.Cmd), zap.Error(err))
			return Invalid
		}
		d.logger.Error("dispatch_handler_error", zap.String("cmd", f.Cmd), zap.Error(err))
		return Failed
	}
	d.logger.Debug("dispatch_handled", zap.String("cmd", f.Cmd))
	return Handled
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/park285/mchess-live/internal/live"
	"github.com/park285/mchess-live/internal/protocol"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	red   = "\033[31m"
	cyan  = "\033[36m"
	reset = "\033[0m"

	submitTimeout = 5 * time.Second
)

// ErrQuit ends the console loop.
var ErrQuit = errors.New("quit")

// Backend is the live loop as seen by the console.
type Backend interface {
	View(ctx context.Context) (live.View, error)
	Submit(ctx context.Context, in live.Intent) (live.IntentResult, error)
}

// Command is one console command.
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(ctx context.Context, args []string) error
}

// Console turns operator input into intents.
type Console struct {
	backend  Backend
	out      io.Writer
	commands map[string]*Command
	logger   *zap.Logger
}

func New(backend Backend, out io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = os.Stdout
	}
	c := &Console{backend: backend, out: out, commands: make(map[string]*Command), logger: logger}
	c.registerCommands()
	return c
}

// Interactive reports whether stdin is a terminal.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (c *Console) Register(cmd *Command) {
	c.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		c.commands[cmd.ShortName] = cmd
	}
}

// Execute runs one input line. It returns ErrQuit for quit and the command's error
// otherwise.
func (c *Console) Execute(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd, ok := c.commands[strings.ToLower(parts[0])]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help')", parts[0])
	}
	return cmd.Handler(ctx, parts[1:])
}

// Run reads commands until quit, EOF or ctx ends.
func (c *Console) Run(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cyan + "mchess> " + reset,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete:    readline.NewPrefixCompleter(c.completions()...),
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	fmt.Fprintf(c.out, "%smchess live console%s\nType 'help' for commands\n\n", cyan, reset)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return nil
		}
		err = c.Execute(ctx, line)
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "%sError: %s%s\n", red, err.Error(), reset)
		}
	}
}

func (c *Console) completions() []readline.PrefixCompleterInterface {
	names := c.names()
	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, n := range names {
		items = append(items, readline.PcItem(n))
	}
	return items
}

// names lists primary command names, sorted.
func (c *Console) names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, cmd := range c.commands {
		if !seen[cmd.Name] {
			seen[cmd.Name] = true
			out = append(out, cmd.Name)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Console) submit(ctx context.Context, in live.Intent) error {
	sctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()
	res, err := c.backend.Submit(sctx, in)
	if err != nil {
		return err
	}
	if !res.OK {
		if res.Error == "" {
			return fmt.Errorf("%s rejected", in.Kind)
		}
		return errors.New(res.Error)
	}
	if res.Move != "" {
		fmt.Fprintf(c.out, "sent %s\n", res.Move)
	}
	c.logger.Debug("console_intent", zap.String("kind", in.Kind))
	return nil
}

// Intent maps a command line to the intent it submits. Commands without an intent
// (view, help, quit) return ok == false.
func Intent(args []string) (live.Intent, bool, error) {
	if len(args) == 0 {
		return live.Intent{}, false, nil
	}
	name, rest := strings.ToLower(args[0]), args[1:]
	simple := map[string]string{
		"new":     live.IntentNewGame,
		"start":   live.IntentMoveStart,
		"back":    live.IntentMoveBack,
		"fwd":     live.IntentMoveForward,
		"end":     live.IntentMoveEnd,
		"stop":    live.IntentStop,
		"analyse": live.IntentAnalyse,
	}
	if kind, ok := simple[name]; ok {
		return live.Intent{Kind: kind}, true, nil
	}
	switch name {
	case "fetch":
		in := live.Intent{Kind: live.IntentPositionFetch}
		if len(rest) > 0 {
			in.Payload.From = rest[0]
		}
		return in, true, nil
	case "fen":
		if len(rest) == 0 {
			return live.Intent{}, true, errors.New("usage: fen <fen>")
		}
		return live.Intent{Kind: live.IntentImportFEN, Payload: live.Payload{FEN: strings.Join(rest, " ")}}, true, nil
	case "player":
		if len(rest) != 2 {
			return live.Intent{}, true, errors.New("usage: player <white|black> <name>")
		}
		side := protocol.Side(strings.ToLower(rest[0]))
		if side != protocol.White && side != protocol.Black {
			return live.Intent{}, true, fmt.Errorf("unknown side %q", rest[0])
		}
		return live.Intent{Kind: live.IntentSelectPlayer, Payload: live.Payload{Color: side, Name: rest[1]}}, true, nil
	case "move":
		if len(rest) != 1 || !protocol.IsUCI(rest[0]) {
			return live.Intent{}, true, errors.New("usage: move <uci>, e.g. move e2e4")
		}
		uci := strings.ToLower(rest[0])
		return live.Intent{Kind: live.IntentDrop, Payload: live.Payload{From: uci[:2], To: uci[2:4], Promotion: uci[4:]}}, true, nil
	}
	return live.Intent{}, false, nil
}

package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/park285/mchess-live/internal/position"
)

func (c *Console) registerCommands() {
	intentCmds := []struct {
		name, short, desc, usage string
	}{
		{"new", "n", "Start a new game", "new"},
		{"start", "", "Go to the start of the game", "start"},
		{"back", "b", "Take back one move", "back"},
		{"fwd", "f", "Replay one move", "fwd"},
		{"end", "", "Go to the end of the game", "end"},
		{"stop", "s", "Stop engines", "stop"},
		{"analyse", "a", "Start analysis of the current position", "analyse"},
		{"fetch", "", "Import the position of another agent", "fetch [actor]"},
		{"fen", "", "Import a position", "fen <fen>"},
		{"player", "p", "Seat a player on one side", "player <white|black> <name>"},
		{"move", "m", "Play a move", "move <uci>"},
	}
	for _, ic := range intentCmds {
		name := ic.name
		c.Register(&Command{
			Name:        name,
			ShortName:   ic.short,
			Description: ic.desc,
			Usage:       ic.usage,
			Handler: func(ctx context.Context, args []string) error {
				in, _, err := Intent(append([]string{name}, args...))
				if err != nil {
					return err
				}
				return c.submit(ctx, in)
			},
		})
	}

	c.Register(&Command{
		Name:        "view",
		ShortName:   "v",
		Description: "Show the current state",
		Usage:       "view",
		Handler:     c.viewHandler,
	})
	c.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Description: "Show available commands",
		Usage:       "help [command]",
		Handler:     c.helpHandler,
	})
	c.Register(&Command{
		Name:        "quit",
		ShortName:   "q",
		Description: "Exit the console",
		Usage:       "quit",
		Handler:     func(context.Context, []string) error { return ErrQuit },
	})
}

func (c *Console) viewHandler(ctx context.Context, _ []string) error {
	v, err := c.backend.View(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s%s%s (%s)\n", cyan, v.Connection.Status, reset, v.Connection.Session)
	if v.Position.FEN != "" {
		fmt.Fprintf(c.out, "%s\n%s\n", v.Position.Title, v.Position.FEN)
		if line := position.JoinTokens(v.Position.Notation); line != "" {
			fmt.Fprintln(c.out, line)
		}
	}
	for _, slot := range v.Analysis.Slots {
		fmt.Fprintf(c.out, "%s%s%s%s\n%s\n", cyan, slot.Actor, reset, slot.Header, slot.Block)
	}
	if hidden := len(v.Analysis.Actors) - len(v.Analysis.Slots); hidden > 0 {
		fmt.Fprintf(c.out, "(%d more analysing)\n", hidden)
	}
	if len(v.Moves.Legal) > 0 {
		fmt.Fprintf(c.out, "legal: %s\n", strings.Join(v.Moves.Legal, " "))
	}
	return nil
}

func (c *Console) helpHandler(_ context.Context, args []string) error {
	if len(args) > 0 {
		cmd, ok := c.commands[args[0]]
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(c.out, "%s%s%s - %s\nusage: %s\n", cyan, cmd.Name, reset, cmd.Description, cmd.Usage)
		return nil
	}
	for _, name := range c.names() {
		cmd := c.commands[name]
		short := ""
		if cmd.ShortName != "" {
			short = " (" + cmd.ShortName + ")"
		}
		fmt.Fprintf(c.out, "  %-8s%-6s %s\n", cmd.Name, short, cmd.Description)
	}
	return nil
}

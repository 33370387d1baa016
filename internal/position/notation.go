package position

import (
	"regexp"
	"strings"
)

// Token is one whitespace-separated piece of game text. MoveNumber tokens ("12.") are
// kept apart so renderers can style them.
type Token struct {
	Text       string `json:"text"`
	MoveNumber bool   `json:"move_number,omitempty"`
}

var moveNumberPrefix = regexp.MustCompile(`^([0-9]+\.)(.*)$`)

// Tokenize shapes PGN for display: headers before the first blank line are dropped, and
// every "<integer>." prefix becomes its own move-number token.
func Tokenize(pgn string) []Token {
	text := pgn
	if i := strings.Index(pgn, "\n\n"); i != -1 {
		text = pgn[i:]
	}
	fields := strings.Fields(text)
	out := make([]Token, 0, len(fields))
	for _, f := range fields {
		m := moveNumberPrefix.FindStringSubmatch(f)
		if m == nil {
			out = append(out, Token{Text: f})
			continue
		}
		out = append(out, Token{Text: m[1], MoveNumber: true})
		if m[2] != "" {
			out = append(out, Token{Text: m[2]})
		}
	}
	return out
}

// JoinTokens rebuilds a single-spaced line from tokens.
func JoinTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

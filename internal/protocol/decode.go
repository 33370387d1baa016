package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMalformed = errf("malformed frame")
	ErrNoCommand = errf("frame carries no cmd")
	ErrInvalid   = errf("invalid payload")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error { return staticErr(s) }

// uciPattern matches source square, destination square and an optional promotion piece.
var uciPattern = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbnQRBN]?$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("uci", func(fl validator.FieldLevel) bool {
		return IsUCI(fl.Field().String())
	})
	return v
}

// IsUCI reports whether s is a well-formed UCI move code.
func IsUCI(s string) bool { return uciPattern.MatchString(s) }

// Frame is a JSON object split into its cmd tag and raw fields.
type Frame struct {
	Cmd    string
	Fields map[string]json.RawMessage
	Raw    []byte
}

// Split parses a text frame. Non-object input yields ErrMalformed; a missing or empty
// cmd yields a Frame with Cmd == "" and ErrNoCommand.
func Split(raw []byte) (Frame, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return Frame{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	f := Frame{Fields: fields, Raw: raw}
	cmdRaw, ok := fields["cmd"]
	if !ok {
		return f, ErrNoCommand
	}
	if err := json.Unmarshal(cmdRaw, &f.Cmd); err != nil {
		return f, fmt.Errorf("%w: cmd is not a string", ErrMalformed)
	}
	f.Cmd = strings.TrimSpace(f.Cmd)
	if f.Cmd == "" {
		return f, ErrNoCommand
	}
	return f, nil
}

// Decode unmarshals the frame body into v and validates it.
func Decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return Validate(v)
}

// Validate checks the validate tags of a struct, wrapping failures in ErrInvalid.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalid, describe(verrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func describe(errs validator.ValidationErrors) string {
	var sb strings.Builder
	for _, e := range errs {
		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		switch e.Tag() {
		case "required":
			sb.WriteString(fmt.Sprintf("%s is required", e.Namespace()))
		case "oneof":
			sb.WriteString(fmt.Sprintf("%s must be one of [%s]", e.Namespace(), e.Param()))
		case "min":
			sb.WriteString(fmt.Sprintf("%s must be at least %s", e.Namespace(), e.Param()))
		case "uci":
			sb.WriteString(fmt.Sprintf("%s is not a move code: %v", e.Namespace(), e.Value()))
		default:
			sb.WriteString(fmt.Sprintf("%s failed %s validation", e.Namespace(), e.Tag()))
		}
	}
	return sb.String()
}

// Legacy frame shapes from the pre-cmd protocol.
const (
	LegacyBoard = "legacy_board"
	LegacyInfo  = "legacy_info"
)

// ClassifyLegacy names the pre-cmd shape of a frame, or "" if it matches none.
func ClassifyLegacy(f Frame) string {
	_, fen := f.Fields["fen"]
	_, attribs := f.Fields["attribs"]
	_, pgn := f.Fields["pgn"]
	if fen && attribs && pgn {
		return LegacyBoard
	}
	if raw, ok := f.Fields["info"]; ok {
		var info map[string]json.RawMessage
		if json.Unmarshal(raw, &info) == nil {
			if _, ok := info["variant"]; ok {
				return LegacyInfo
			}
		}
	}
	return ""
}

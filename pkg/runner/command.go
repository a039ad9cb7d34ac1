package runner

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names what a parsed line asks for.
type Kind int

const (
	KindEvent Kind = iota
	KindPush
	KindPop
	KindStack
	KindHelp
	KindQuit
)

var ErrEmptyCommand = errors.New("empty command")

// Command is one parsed input line.
type Command struct {
	Kind Kind
	// Name is the event for KindEvent and the specification for KindPush.
	Name string
	Args map[string]any
}

// Parse reads a line such as `respond text="a b" confidence=sure` or
// `:push slideshow unit=u1`.
func Parse(line string) (Command, error) {
	fields, err := split(line)
	if err != nil {
		return Command{}, err
	}
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}

	head, rest := fields[0], fields[1:]
	if !strings.HasPrefix(head, ":") {
		args, err := pairs(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindEvent, Name: head, Args: args}, nil
	}

	var cmd Command
	switch head {
	case ":push":
		if len(rest) == 0 {
			return Command{}, errors.New(":push needs a specification name")
		}
		cmd = Command{Kind: KindPush, Name: rest[0]}
		rest = rest[1:]
	case ":pop":
		cmd.Kind = KindPop
	case ":stack":
		cmd.Kind = KindStack
	case ":help", ":h", ":?":
		cmd.Kind = KindHelp
	case ":quit", ":q", ":exit":
		cmd.Kind = KindQuit
	default:
		return Command{}, fmt.Errorf("unknown command %q (try :help)", head)
	}
	if cmd.Kind != KindPush && len(rest) > 0 {
		return Command{}, fmt.Errorf("%s takes no arguments", head)
	}
	if cmd.Kind == KindPush {
		if cmd.Args, err = pairs(rest); err != nil {
			return Command{}, err
		}
	}
	return cmd, nil
}

func pairs(fields []string) (map[string]any, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", f)
		}
		out[k] = v
	}
	return out, nil
}

// split breaks a line on whitespace, keeping double-quoted runs together.
func split(line string) ([]string, error) {
	var (
		fields []string
		cur    strings.Builder
		quoted bool
		inWord bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			inWord = true
		case !quoted && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if inWord {
				fields = append(fields, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quoted {
		return nil, errors.New("unterminated quote")
	}
	if inWord {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

const helpText = `Commands:
  <event> [key=value ...]   dispatch an event against the top of the stack
  :push <spec> [key=value]  push a flow with seeded state
  :pop                      pop the top flow
  :stack                    show every frame
  :help                     show this help
  :quit                     leave
`

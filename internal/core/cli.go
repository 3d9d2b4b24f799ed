package core

import (
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

type ValidationError struct {
	Arg   string
	Cause string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Cause)
}

type RedirectMode int

const (
	RedirectNone RedirectMode = iota
	RedirectTruncate
	RedirectAppend
)

// Command is one tokenized input line.
type Command struct {
	Name     string
	Args     []string
	Redirect RedirectMode
	Target   string
}

// ParseCommand splits a line into words with shell quoting rules. The
// first unquoted ">" or ">>" redirects output to the single word that
// follows it. A blank line returns a nil command.
func ParseCommand(line string) (*Command, error) {
	parser := shellwords.NewParser()
	words, err := parser.Parse(line)
	if err != nil {
		return nil, &ValidationError{Arg: line, Cause: "malformed quoting"}
	}

	var rest string
	if parser.Position >= 0 {
		rest = string([]rune(line)[parser.Position:])
	}
	if len(words) == 0 {
		if rest != "" {
			return nil, &ValidationError{Arg: rest, Cause: "missing command"}
		}
		return nil, nil
	}

	cmd := &Command{Name: words[0], Args: words[1:]}
	if rest == "" {
		return cmd, nil
	}

	switch {
	case strings.HasPrefix(rest, ">>"):
		cmd.Redirect = RedirectAppend
		rest = rest[2:]
	case strings.HasPrefix(rest, ">"):
		cmd.Redirect = RedirectTruncate
		rest = rest[1:]
	default:
		return nil, &ValidationError{Arg: rest, Cause: "unsupported operator"}
	}

	target, err := parseTarget(rest)
	if err != nil {
		return nil, err
	}
	cmd.Target = target
	return cmd, nil
}

func parseTarget(s string) (string, error) {
	parser := shellwords.NewParser()
	words, err := parser.Parse(s)
	if err != nil {
		return "", &ValidationError{Arg: s, Cause: "malformed quoting"}
	}
	if parser.Position >= 0 {
		op := string([]rune(s)[parser.Position:])
		if strings.HasPrefix(op, ">") {
			return "", &ValidationError{Arg: op, Cause: "only one redirect allowed"}
		}
		return "", &ValidationError{Arg: op, Cause: "unsupported operator"}
	}

	switch len(words) {
	case 0:
		return "", &ValidationError{Arg: s, Cause: "missing redirect target"}
	case 1:
		return words[0], nil
	default:
		return "", &ValidationError{Arg: words[1], Cause: "unexpected argument after redirect target"}
	}
}

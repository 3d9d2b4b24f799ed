// Package shell runs line commands against a namespace.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"jshell/internal/core"
)

const PromptSuffix = "# "

// Result is the outcome of one command line.
type Result struct {
	Line    string
	Command string
	Output  string
	Err     error
	Exit    bool
}

// Recorder is notified after every executed command.
type Recorder interface {
	Record(ctx context.Context, res Result, elapsed time.Duration)
}

type Shell struct {
	ns       *core.Namespace
	recorder Recorder
}

func New(ns *core.Namespace) *Shell {
	if ns == nil {
		ns = core.New()
	}
	return &Shell{ns: ns}
}

// SetRecorder installs r; nil disables recording.
func (s *Shell) SetRecorder(r Recorder) {
	s.recorder = r
}

func (s *Shell) Namespace() *core.Namespace {
	return s.ns
}

// Prompt is the absolute path of the current directory followed by "# ".
func (s *Shell) Prompt() string {
	return s.ns.Pwd() + PromptSuffix
}

// Execute parses and runs a single line.
func (s *Shell) Execute(ctx context.Context, line string) Result {
	start := time.Now()

	cmd, err := core.ParseCommand(line)
	var res Result
	switch {
	case err != nil:
		res = Result{Err: err}
	case cmd == nil:
		return Result{}
	default:
		res = s.dispatch(cmd)
	}
	res.Line = line

	if s.recorder != nil {
		s.recorder.Record(ctx, res, time.Since(start))
	}
	return res
}

func (s *Shell) dispatch(cmd *core.Command) Result {
	res := Result{Command: cmd.Name}

	if cmd.Redirect != core.RedirectNone && cmd.Name != "echo" {
		res.Err = fmt.Errorf("%s: output redirection is only supported by echo", cmd.Name)
		return res
	}

	switch cmd.Name {
	case "mkdir":
		res.Err = errors.Join(s.ns.MakeDirectory(cmd.Args)...)
	case "cd":
		res.Err = s.ns.ChangeDirectory(cmd.Args)
	case "pwd":
		if len(cmd.Args) != 0 {
			res.Err = &core.UsageError{Op: "pwd"}
			break
		}
		res.Output = s.ns.Pwd()
	case "ls":
		res.Output = s.ns.ListFiles(cmd.Args)
	case "cat":
		res.Output, res.Err = s.ns.ReadFile(cmd.Args)
	case "ln":
		res.Err = s.ns.LinkFile(cmd.Args)
	case "echo":
		res.Output, res.Err = s.echo(cmd)
	case "exit":
		res.Exit = true
	default:
		res.Err = fmt.Errorf("%s: Not a valid command, please try again.", cmd.Name)
	}
	return res
}

func (s *Shell) echo(cmd *core.Command) (string, error) {
	text := strings.Join(cmd.Args, " ")
	switch cmd.Redirect {
	case core.RedirectTruncate:
		return "", s.ns.WriteFile(cmd.Target, text, false)
	case core.RedirectAppend:
		return "", s.ns.WriteFile(cmd.Target, text, true)
	default:
		return text, nil
	}
}

// Run reads commands from in until exit, EOF, or ctx is cancelled.
// Output goes to out, errors to errOut.
func (s *Shell) Run(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	for {
		fmt.Fprint(out, s.Prompt())

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				return nil
			}
			line = l
		}

		res := s.Execute(ctx, line)
		if res.Output != "" {
			fmt.Fprintln(out, res.Output)
		}
		if res.Err != nil {
			fmt.Fprintln(errOut, res.Err)
			slog.Debug("command failed", "command", res.Command, "error", res.Err)
		}
		if res.Exit {
			return nil
		}
	}
}

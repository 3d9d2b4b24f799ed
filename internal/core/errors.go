package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotExist  = errors.New("no such file or directory")
	ErrExist     = errors.New("file exists")
	ErrNotDir    = errors.New("not a directory")
	ErrIsDir     = errors.New("is a directory")
	ErrNoContent = errors.New("no content")
)

// PathError records a failed operation on one path. Its message is the
// line the shell prints.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	switch e.Op {
	case "mkdir":
		return fmt.Sprintf("mkdir: cannot create directory '%s': %s", e.Path, describe(e.Err))
	case "cd", "ln":
		return fmt.Sprintf("%s : %s: %s", e.Op, e.Path, describe(e.Err))
	case "ls":
		return fmt.Sprintf("ls: %s: Path does not exist", e.Path)
	case "cat":
		return fmt.Sprintf("cat: %s: No such file or no content", e.Path)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Path, describe(e.Err))
	}
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// UsageError reports a wrong number of arguments. With AtLeast set,
// Want is a minimum rather than an exact count.
type UsageError struct {
	Op      string
	Want    int
	AtLeast bool
}

func (e *UsageError) Error() string {
	if e.AtLeast {
		return fmt.Sprintf("%s : Command takes at least %d argument, please try again.", e.Op, e.Want)
	}
	if e.Want == 0 {
		return fmt.Sprintf("%s : Command takes no arguments, please try again.", e.Op)
	}
	noun := "argument"
	if e.Want > 1 {
		noun = "arguments"
	}
	return fmt.Sprintf("%s : Command takes only %d %s, please try again.", e.Op, e.Want, noun)
}

func describe(err error) string {
	switch {
	case errors.Is(err, ErrNotExist):
		return "No such file or directory"
	case errors.Is(err, ErrExist):
		return "File exists"
	case errors.Is(err, ErrNotDir):
		return "Not a directory"
	case errors.Is(err, ErrIsDir):
		return "Is a directory"
	case errors.Is(err, ErrNoContent):
		return "No content"
	default:
		return err.Error()
	}
}

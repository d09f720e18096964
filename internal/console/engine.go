package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"clinicbook/internal/dashboard"
	"clinicbook/internal/session"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUnavailable    = errors.New("command not available in this view")
)

// Context is what a command sees while it runs.
type Context struct {
	Ctx   context.Context
	Args  []string
	Shell *dashboard.Shell
	Out   io.Writer
}

func (c *Context) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.Out, format, args...)
}

// Arg returns the i-th argument, or "" when it was not given.
func (c *Context) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

type Command struct {
	Name    string
	Usage   string
	Summary string
	// Views limits the command to those views. Empty means every view.
	Views   []session.View
	MinArgs int
	Run     func(c *Context) error
}

func (c *Command) AvailableIn(view session.View) bool {
	if len(c.Views) == 0 {
		return true
	}
	for _, v := range c.Views {
		if v == view {
			return true
		}
	}
	return false
}

// Engine dispatches named commands, gated by the current view.
type Engine struct {
	commands map[string]*Command
}

func NewEngine(commands ...*Command) *Engine {
	m := map[string]*Command{}
	for _, c := range commands {
		m[c.Name] = c
	}
	return &Engine{commands: m}
}

func (e *Engine) Run(name string, c *Context) error {
	cmd, exists := e.commands[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if !cmd.AvailableIn(c.Shell.View()) {
		return fmt.Errorf("%w: %s", ErrUnavailable, name)
	}
	if len(c.Args) < cmd.MinArgs {
		return usageError(cmd)
	}
	return cmd.Run(c)
}

// Available lists the commands of a view, sorted by name.
func (e *Engine) Available(view session.View) []*Command {
	out := make([]*Command, 0, len(e.commands))
	for _, c := range e.commands {
		if c.AvailableIn(view) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

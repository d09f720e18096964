package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"clinicbook/internal/dashboard"
	"clinicbook/pkg/logger"
)

// Console is the line-oriented front end over a dashboard shell.
type Console struct {
	engine  *Engine
	shell   *dashboard.Shell
	out     io.Writer
	timeout time.Duration
	log     *logger.Logger
}

// New builds a console. timeout bounds each command's collaborator calls; zero
// means no bound beyond the caller's context.
func New(shell *dashboard.Shell, out io.Writer, timeout time.Duration, log *logger.Logger) *Console {
	c := &Console{
		shell:   shell,
		out:     out,
		timeout: timeout,
		log:     log.Component("console"),
	}
	c.engine = NewEngine(commands(c.help)...)
	return c
}

// Run reads commands until EOF, "exit" or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	c.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}
		if line != "" {
			if err := c.Execute(ctx, line); err != nil {
				_, _ = fmt.Fprintf(c.out, "! %s\n", Notification(err))
			}
		}
		c.prompt()
	}
	return scanner.Err()
}

// Execute runs one command line and returns its failure, if any.
func (c *Console) Execute(ctx context.Context, line string) error {
	fields := splitLine(line)
	if len(fields) == 0 {
		return nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	name := strings.ToLower(fields[0])
	err := c.engine.Run(name, &Context{
		Ctx:   ctx,
		Args:  fields[1:],
		Shell: c.shell,
		Out:   c.out,
	})
	if err != nil {
		c.log.Debug("Command failed", "command", name, "view", c.shell.View(), "error", err)
	}
	return err
}

func (c *Console) prompt() {
	_, _ = fmt.Fprintf(c.out, "[%s]> ", c.shell.View())
}

func (c *Console) help(ctx *Context) error {
	view := c.shell.View()
	ctx.Printf("Commands in %s:\n", view)
	for _, cmd := range c.engine.Available(view) {
		ctx.Printf("  %-55s %s\n", cmd.Usage, cmd.Summary)
	}
	ctx.Printf("  %-55s %s\n", "exit", "leave the shell")
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the portal command tree.
type Command struct {
	Name    string
	Summary string
	// Usage is the argument synopsis after the command path, e.g. "<id>".
	Usage string

	// Flags returns the command's flag set. Called once per execution.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run receives the positional arguments left after flag parsing.
	Run func(ctx context.Context, args []string) error

	parent *Command
	out    io.Writer
}

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// Execute dispatches args down the tree and runs the matching command.
func (c *Command) Execute(ctx context.Context, args []string) error {
	if len(args) > 0 && isHelp(args[0]) {
		c.PrintHelp(c.writer())
		return nil
	}
	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				sub.parent = c
				return sub.Execute(ctx, args[1:])
			}
		}
		return usageError("unknown command %q; run '%s --help'", args[0], c.path())
	}
	if c.Run == nil {
		c.PrintHelp(c.writer())
		return usageError("%s needs a subcommand", c.path())
	}

	rest := args
	if c.Flags != nil {
		fs := c.Flags()
		fs.SetOutput(io.Discard)
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				c.PrintHelp(c.writer())
				return nil
			}
			return usageError("%s: %v", c.path(), err)
		}
		rest = fs.Args()
	}
	return c.Run(ctx, rest)
}

func (c *Command) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s", c.path())
	if len(c.Subcommands) > 0 {
		fmt.Fprint(w, " <command>")
	}
	if c.Usage != "" {
		fmt.Fprint(w, " "+c.Usage)
	}
	fmt.Fprintln(w)
	if c.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", c.Summary)
	}
	if len(c.Subcommands) > 0 {
		fmt.Fprintln(w, "\nCommands:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}
	if c.Flags != nil {
		if usage := c.Flags().FlagUsages(); usage != "" {
			fmt.Fprintf(w, "\nFlags:\n%s", usage)
		}
	}
}

func (c *Command) path() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.path() + " " + c.Name
}

func (c *Command) writer() io.Writer {
	for n := c; n != nil; n = n.parent {
		if n.out != nil {
			return n.out
		}
	}
	return io.Discard
}

func isHelp(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

// exactArgs wraps run so it only sees exactly n positional arguments.
func exactArgs(n int, names string, run func(ctx context.Context, args []string) error) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		if len(args) != n {
			return usageError("expected %s", names)
		}
		return run(ctx, args)
	}
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// command is a node in the CLI tree. Leaves set run; groups set subcommands.
type command struct {
	name        string
	usage       string
	summary     string
	flags       func(fs *pflag.FlagSet)
	subcommands []*command
	run         func(fs *pflag.FlagSet, args []string) error
}

var errUsage = errors.New("usage")

// execute dispatches args down the tree and runs the matching leaf.
func (c *command) execute(args []string, stderr io.Writer) error {
	if len(c.subcommands) > 0 {
		if len(args) == 0 || isHelp(args[0]) {
			c.printHelp(stderr)
			if len(args) == 0 {
				return errUsage
			}
			return nil
		}
		for _, sub := range c.subcommands {
			if sub.name == args[0] {
				return sub.execute(args[1:], stderr)
			}
		}
		c.printHelp(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}

	fs := pflag.NewFlagSet(c.name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if c.flags != nil {
		c.flags(fs)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			c.printHelp(stderr)
			return nil
		}
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return c.run(fs, fs.Args())
}

func isHelp(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

func (c *command) printHelp(w io.Writer) {
	usage := c.usage
	if usage == "" {
		usage = c.name
	}
	fmt.Fprintf(w, "Usage: %s\n", usage)
	if c.summary != "" {
		fmt.Fprintf(w, "\n%s\n", c.summary)
	}
	if len(c.subcommands) > 0 {
		fmt.Fprintln(w, "\nCommands:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, sub := range c.subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.name, sub.summary)
		}
		_ = tw.Flush()
		return
	}
	if c.flags != nil {
		fs := pflag.NewFlagSet(c.name, pflag.ContinueOnError)
		c.flags(fs)
		if s := strings.TrimRight(fs.FlagUsages(), "\n"); s != "" {
			fmt.Fprintf(w, "\nFlags:\n%s\n", s)
		}
	}
}

// wantArgs checks the positional argument count of a leaf.
func wantArgs(args []string, n int, names string) error {
	if len(args) != n {
		return fmt.Errorf("expected %s, got %d argument(s)", names, len(args))
	}
	return nil
}

package main

import (
	"context"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/blockcfg/compiler"
	"github.com/slowlang/blockcfg/compiler/cfg"
	"github.com/slowlang/blockcfg/compiler/format"
	"github.com/slowlang/blockcfg/compiler/parse"
)

func main() {
	dumpCmd := &cli.Command{
		Name:        "dump",
		Description: "print block graphs of IR graph files",
		Action:      dumpAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("graph", false, "print the IR graph before the block graph"),
		},
	}

	hotCmd := &cli.Command{
		Name:        "hot",
		Description: "print the most frequently executed blocks",
		Action:      hotAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("top", 10, "number of blocks to print"),
		},
	}

	app := &cli.Command{
		Name:        "blockcfg",
		Description: "blockcfg builds block control flow graphs of node level IR graphs",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("config", "", "phase options file (toml)"),
			cli.NewFlag("no-loops", false, "skip loop discovery"),
			cli.NewFlag("no-dom", false, "skip dominators"),
			cli.NewFlag("no-postdom", false, "skip postdominators"),
			cli.NewFlag("no-verify", false, "skip verification"),
			cli.NewFlag("verbosity,v", "", "tlog verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			dumpCmd,
			hotCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func dumpAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	opts, err := options(c)
	if err != nil {
		return err
	}

	var b []byte

	for _, a := range c.Args {
		g, err := parse.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		if c.Bool("graph") {
			b, err = format.Format(ctx, b, g)
			if err != nil {
				return errors.Wrap(err, "format graph %v", a)
			}
		}

		x, err := cfg.Compute(ctx, g, opts)
		if err != nil {
			return errors.Wrap(err, "compute %v", a)
		}

		b, err = format.Format(ctx, b, x)
		if err != nil {
			return errors.Wrap(err, "format cfg %v", a)
		}
	}

	_, err = os.Stdout.Write(b)

	return err
}

func hotAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	opts, err := options(c)
	if err != nil {
		return err
	}

	var b []byte

	for _, a := range c.Args {
		x, err := compiler.AnalyzeFile(ctx, a, opts)
		if err != nil {
			return errors.Wrap(err, "analyze %v", a)
		}

		b = format.Hot(ctx, b, x, c.Int("top"))
	}

	_, err = os.Stdout.Write(b)

	return err
}

func options(c *cli.Command) (opts cfg.Options, err error) {
	opts = cfg.DefaultOptions()

	if f := c.String("config"); f != "" {
		opts, err = compiler.ReadOptions(f)
		if err != nil {
			return opts, errors.Wrap(err, "config %v", f)
		}
	}

	if c.Bool("no-loops") {
		opts.Loops = false
	}

	if c.Bool("no-dom") {
		opts.Dominators = false
	}

	if c.Bool("no-postdom") {
		opts.Postdominators = false
	}

	if c.Bool("no-verify") {
		opts.Verify = false
	}

	return opts, nil
}

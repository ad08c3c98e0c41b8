package compiler

import (
	"bytes"
	"context"
	"os"

	"github.com/pelletier/go-toml/v2"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/blockcfg/compiler/cfg"
	"github.com/slowlang/blockcfg/compiler/parse"
)

// AnalyzeFile loads an IR graph from a YAML file and builds its block graph.
func AnalyzeFile(ctx context.Context, name string, opts cfg.Options) (*cfg.CFG, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Analyze(ctx, text, opts)
}

func Analyze(ctx context.Context, text []byte, opts cfg.Options) (c *cfg.CFG, err error) {
	g, err := parse.Parse(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse graph")
	}

	c, err = cfg.Compute(ctx, g, opts)
	if err != nil {
		return nil, errors.Wrap(err, "compute cfg")
	}

	return c, nil
}

// ReadOptions reads phase options from a TOML file.
// Keys missing in the file keep their defaults.
func ReadOptions(name string) (cfg.Options, error) {
	opts := cfg.DefaultOptions()

	data, err := os.ReadFile(name)
	if err != nil {
		return opts, errors.Wrap(err, "read options")
	}

	d := toml.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()

	err = d.Decode(&opts)
	if err != nil {
		return opts, errors.Wrap(err, "decode options")
	}

	return opts, nil
}

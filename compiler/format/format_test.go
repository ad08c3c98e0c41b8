package format

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/blockcfg/compiler/cfg"
	"github.com/slowlang/blockcfg/compiler/ir"
	"github.com/slowlang/blockcfg/compiler/parse"
)

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func load(t *testing.T, name string) (*ir.Graph, *cfg.CFG) {
	t.Helper()

	ctx := context.Background()

	g, err := parse.ParseFile(ctx, "../parse/testdata/"+name+".yaml")
	require.NoError(t, err)

	c, err := cfg.Compute(ctx, g, cfg.DefaultOptions())
	require.NoError(t, err)

	return g, c
}

func TestFormatCFG(t *testing.T) {
	for _, name := range []string{"diamond", "loop"} {
		t.Run(name, func(t *testing.T) {
			_, c := load(t, name)

			b, err := Format(context.Background(), nil, c)
			require.NoError(t, err)

			golden(t).Assert(t, name, b)
		})
	}
}

func TestFormatGraph(t *testing.T) {
	g, _ := load(t, "diamond")

	b, err := Format(context.Background(), nil, g)
	require.NoError(t, err)

	golden(t).Assert(t, "diamond_graph", b)
}

func TestHot(t *testing.T) {
	_, c := load(t, "loop")

	b := Hot(context.Background(), nil, c, 3)

	golden(t).Assert(t, "loop_hot", b)
}

func TestFormatUnsupported(t *testing.T) {
	_, err := Format(context.Background(), nil, 42)
	require.Error(t, err)
}

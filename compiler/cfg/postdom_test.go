package cfg

import (
	"context"
	"slices"
	"testing"

	"github.com/slowlang/blockcfg/compiler/ir"
	"github.com/stretchr/testify/assert"
)

func TestPostdominatorsSoundness(t *testing.T) {
	for _, mk := range []func() (*ir.Graph, nodes){diamondGraph, exitLoopGraph, nestedLoopsGraph, switchGraph, siblingLoopsGraph} {
		g, _ := mk()

		c := compute(t, g, DefaultOptions())

		for _, b := range c.Blocks() {
			switch {
			case c.IsLoopEnd(b.ID), len(b.Succs) == 0:
				assert.Equal(t, NoBlock, b.Postdom, "%v: block %v", g.Name, b.ID)
			case len(b.Succs) == 1:
				assert.Equal(t, b.Succs[0], b.Postdom, "%v: block %v", g.Name, b.ID)
			default:
				assert.False(t, slices.Contains(b.Succs, b.Postdom), "%v: block %v", g.Name, b.ID)
			}
		}
	}
}

func TestPostdominatorsLoop(t *testing.T) {
	g, n := exitLoopGraph()

	c := compute(t, g, DefaultOptions())

	h := c.BlockFor(n["loop"])

	// one path goes around the loop, the other leaves it
	assert.Equal(t, NoBlock, h.Postdom)
	assert.Equal(t, NoBlock, c.BlockFor(n["continue"]).Postdom)
	assert.Equal(t, h.ID, c.StartBlock().Postdom)
}

func TestPostdominatorsNested(t *testing.T) {
	g, n := nestedLoopsGraph()

	c := compute(t, g, DefaultOptions())

	want := map[string]BlockID{
		"outer":      c.BlockFor(n["inner"]).ID,
		"inner":      NoBlock,
		"inner_body": NoBlock,
		"inner_exit": NoBlock,
		"outer_body": NoBlock,
		"outer_exit": NoBlock,
	}

	for name, pdom := range want {
		assert.Equal(t, pdom, c.BlockFor(n[name]).Postdom, name)
	}
}

func TestPostdominatorIsSuccessor(t *testing.T) {
	g, n := diamondGraph()

	opts := DefaultOptions()
	opts.Postdominators = false

	c := compute(t, g, opts)

	// split jumping both to t and straight to the merge t leads to
	split := c.BlockFor(n["if"])
	split.Succs = []BlockID{c.BlockFor(n["t"]).ID, c.BlockFor(n["merge"]).ID}

	assert.Panics(t, func() {
		c.ComputePostdominators(context.Background())
	})
}

package cfg

import (
	"testing"

	"github.com/slowlang/blockcfg/compiler/ir"
	"github.com/stretchr/testify/assert"
)

func TestProbabilitySplit(t *testing.T) {
	g, n := diamondGraph()

	c := compute(t, g, DefaultOptions())

	split := c.BlockFor(n["if"])
	tb := c.BlockFor(n["t"])
	fb := c.BlockFor(n["f"])
	m := c.BlockFor(n["merge"])

	assert.Equal(t, 1.0, split.Probability)
	assert.InDelta(t, 0.25, tb.Probability, 1e-9)
	assert.InDelta(t, 0.75, fb.Probability, 1e-9)
	assert.InDelta(t, split.Probability, tb.Probability+fb.Probability, 1e-9)
	assert.InDelta(t, 1.0, m.Probability, 1e-9)
}

func TestProbabilitySwitch(t *testing.T) {
	g, n := switchGraph()

	c := compute(t, g, DefaultOptions())

	assert.InDelta(t, 0.5, c.BlockFor(n["arm0"]).Probability, 1e-9)
	assert.InDelta(t, 0.3, c.BlockFor(n["arm1"]).Probability, 1e-9)
	assert.InDelta(t, 0.2, c.BlockFor(n["arm2"]).Probability, 1e-9)
	assert.InDelta(t, 1.0, c.BlockFor(n["merge"]).Probability, 1e-9)
}

func TestProbabilityLoopHeader(t *testing.T) {
	g, n := simpleLoopGraph()

	c := compute(t, g, DefaultOptions())

	h := c.BlockFor(n["loop"])
	entry := c.BlockFor(n["entry"])

	assert.InDelta(t, entry.Probability*8, h.Probability, 1e-9)
	assert.InDelta(t, h.Probability, c.BlockFor(n["body"]).Probability, 1e-9)
}

func TestProbabilityNestedLoops(t *testing.T) {
	g, n := nestedLoopsGraph()

	c := compute(t, g, DefaultOptions())

	assert.InDelta(t, 2.0, c.BlockFor(n["outer"]).Probability, 1e-9)
	assert.InDelta(t, 6.0, c.BlockFor(n["inner"]).Probability, 1e-9)
	assert.InDelta(t, 3.0, c.BlockFor(n["inner_body"]).Probability, 1e-9)
	assert.InDelta(t, 3.0, c.BlockFor(n["inner_exit"]).Probability, 1e-9)
	assert.InDelta(t, 1.5, c.BlockFor(n["outer_body"]).Probability, 1e-9)
	assert.InDelta(t, 1.5, c.BlockFor(n["outer_exit"]).Probability, 1e-9)
}

func TestProbabilityFloor(t *testing.T) {
	g := ir.New("unlikely")

	cold, hot := g.Begin(), g.Begin()
	split := g.If(cold, hot, 1e-9)
	g.Chain(g.Start(), split)
	g.Chain(cold, g.Return())
	g.Chain(hot, g.Return())

	c := compute(t, g, DefaultOptions())

	assert.Equal(t, MinProbability, c.BlockFor(cold).Probability)

	for _, b := range c.Blocks() {
		assert.GreaterOrEqual(t, b.Probability, MinProbability)
	}
}

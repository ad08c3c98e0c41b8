package cfg

import (
	"context"

	"github.com/slowlang/blockcfg/compiler/ir"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
)

type (
	// Graph is the view of the node-level IR the analysis reads.
	// It is never mutated.
	Graph interface {
		GraphName() string
		GraphStage() ir.Stage

		Start() ir.Node
		NumNodes() int

		// Begins enumerates every live block-beginning node.
		Begins() []ir.Node
		HasLoops() bool

		Kind(n ir.Node) ir.Kind
		Deleted(n ir.Node) bool
		NodeName(n ir.Node) string

		Next(n ir.Node) ir.Node
		Successors(n ir.Node) []ir.Node
		Probability(split, succ ir.Node) float64

		Target(n ir.Node) ir.Node
		ForwardEnds(n ir.Node) []ir.Node
		LoopEnds(n ir.Node) []ir.Node
		LoopExits(n ir.Node) []ir.Node
		LoopFrequency(n ir.Node) float64
	}

	Options struct {
		Loops          bool `toml:"loops"`
		Dominators     bool `toml:"dominators"`
		Postdominators bool `toml:"postdominators"`
		Verify         bool `toml:"verify"`
	}

	// CFG is the block graph of one IR graph snapshot.
	// It is built once and never updated: recompute it after any IR change.
	CFG struct {
		g Graph

		blocks      []Block
		nodeToBlock NodeMap
		loops       []Loop

		hasDoms bool
	}
)

// MinProbability bounds block probabilities from below.
// Nested infinite loops would otherwise make frequencies overflow.
const MinProbability = 0.000001

var _ Graph = (*ir.Graph)(nil)

func DefaultOptions() Options {
	return Options{
		Loops:          true,
		Dominators:     true,
		Postdominators: true,
		Verify:         true,
	}
}

// Compute builds the block graph of g: partitions it into blocks, connects and
// numbers them in reverse postorder and estimates probabilities.
// Further phases are selected by opts.
//
// Violated internal invariants panic. Verification failures are returned.
func Compute(ctx context.Context, g Graph, opts Options) (c *CFG, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "cfg: compute", "graph", g.GraphName(), "nodes", g.NumNodes())
	defer tr.Finish("err", &err)

	c = &CFG{g: g}

	c.identifyBlocks(ctx)
	c.computeProbabilities(ctx)

	if opts.Loops {
		c.ComputeLoops(ctx)
	}

	if opts.Dominators {
		c.ComputeDominators(ctx)
	}

	if opts.Postdominators {
		c.ComputePostdominators(ctx)
	}

	if tr.If("dump_blocks") {
		for i := range c.blocks {
			b := &c.blocks[i]

			tr.Printw("block", "block", b, "preds", b.Preds, "succs", b.Succs, "prob", b.Probability, "pdom", b.Postdom, "dom", b.Dom)
		}

		for i := range c.loops {
			tr.Printw("loop", "loop", &c.loops[i], "blocks", c.loops[i].Blocks, "exits", c.loops[i].Exits)
		}
	}

	if opts.Verify {
		err = c.Verify()
		if err != nil {
			return nil, errors.Wrap(err, "verify %v", g.GraphName())
		}
	}

	tr.Printw("cfg computed", "blocks", len(c.blocks), "loops", len(c.loops))

	return c, nil
}

func (c *CFG) Graph() Graph { return c.g }

// Blocks returns blocks in reverse postorder. Blocks()[i].ID == i.
func (c *CFG) Blocks() []Block { return c.blocks }

func (c *CFG) NumBlocks() int { return len(c.blocks) }

func (c *CFG) Block(id BlockID) *Block { return &c.blocks[id] }

func (c *CFG) StartBlock() *Block { return &c.blocks[0] }

// BlockFor returns the block owning n or nil.
func (c *CFG) BlockFor(n ir.Node) *Block {
	id := c.nodeToBlock.Get(n)
	if id == NoBlock {
		return nil
	}

	return &c.blocks[id]
}

func (c *CFG) NodeToBlock() NodeMap { return c.nodeToBlock }

// SetNodeToBlock replaces the node to block mapping.
// It lets callers which changed the IR reattach nodes without partitioning again.
func (c *CFG) SetNodeToBlock(m NodeMap) { c.nodeToBlock = m }

// Loops returns loops in discovery order. Loops()[i].Index == i.
func (c *CFG) Loops() []Loop { return c.loops }

func (c *CFG) Loop(id LoopID) *Loop { return &c.loops[id] }

// LoopOf returns the innermost loop containing b or nil.
func (c *CFG) LoopOf(b BlockID) *Loop {
	l := c.blocks[b].Loop
	if l == NoLoop {
		return nil
	}

	return &c.loops[l]
}

func (c *CFG) IsLoopHeader(b BlockID) bool {
	return c.g.Kind(c.blocks[b].Begin) == ir.LoopBegin
}

// IsLoopEnd reports whether b ends with a back edge.
func (c *CFG) IsLoopEnd(b BlockID) bool {
	return c.g.Kind(c.blocks[b].End) == ir.LoopEnd
}

func (c *CFG) IsLoopExit(b BlockID) bool {
	return c.g.Kind(c.blocks[b].Begin) == ir.LoopExit
}

// NumBackEdges returns the number of loop ends of l.
func (c *CFG) NumBackEdges(l LoopID) int {
	return len(c.g.LoopEnds(c.blocks[c.loops[l].Header].Begin))
}

// bug aborts the computation on a violated internal invariant.
func bug(format string, args ...any) {
	err := errors.New(format, args...)

	tlog.Printw("cfg invariant violated", "err", err, "from", loc.Caller(1))

	panic(err)
}

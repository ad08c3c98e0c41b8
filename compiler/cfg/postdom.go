package cfg

import (
	"context"
	"slices"

	"tlog.app/go/tlog"
)

// ComputePostdominators sets Block.Postdom of every block.
// Blocks are visited from the highest id down, so successors reached
// through forward edges are done before their predecessors.
// Blocks ending with a back edge get no postdominator.
func (c *CFG) ComputePostdominators(ctx context.Context) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "cfg: postdominators")
	defer tr.Finish()

	for i := range c.blocks {
		c.blocks[i].Postdom = NoBlock
	}

outer:
	for j := len(c.blocks) - 1; j >= 0; j-- {
		b := &c.blocks[j]

		if c.IsLoopEnd(b.ID) {
			continue
		}

		switch len(b.Succs) {
		case 0:
			continue
		case 1:
			b.Postdom = b.Succs[0]
			continue
		}

		pdom := b.Succs[0]

		for _, s := range b.Succs[1:] {
			pdom = c.commonPostdominator(pdom, s)
			if pdom == NoBlock {
				// dead end on some path
				continue outer
			}
		}

		if slices.Contains(b.Succs, pdom) {
			bug("block %v: postdominator %v is a direct successor %v", b.ID, pdom, b.Succs)
		}

		b.Postdom = pdom

		tr.V("postdom").Printw("postdominator", "block", b.ID, "pdom", pdom)
	}
}

// commonPostdominator returns the nearest block postdominating both a and b
// or NoBlock if the chain of either ends first.
func (c *CFG) commonPostdominator(a, b BlockID) BlockID {
	for a != b {
		if a < b {
			a = c.blocks[a].Postdom
			if a == NoBlock {
				return NoBlock
			}
		} else {
			b = c.blocks[b].Postdom
			if b == NoBlock {
				return NoBlock
			}
		}
	}

	return a
}

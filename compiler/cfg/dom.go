package cfg

import (
	"context"

	"tlog.app/go/tlog"
)

// ComputeDominators sets Block.Dom and Block.DomDepth of every block.
//
// It's the iterative algorithm from "A Simple, Fast Dominance Algorithm"
// by Cooper, Harvey and Kennedy. Block ids are reverse postorder numbers,
// so they are used as the finger order in intersect.
// The start block has no dominator and depth 0.
func (c *CFG) ComputeDominators(ctx context.Context) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "cfg: dominators")
	defer tr.Finish()

	if len(c.blocks) == 0 {
		return
	}

	doms := make([]BlockID, len(c.blocks))
	for i := range doms {
		doms[i] = NoBlock
	}

	doms[0] = 0

	iters := 0

	for changed := true; changed; iters++ {
		changed = false

		for i := 1; i < len(c.blocks); i++ {
			u := NoBlock

			for _, p := range c.blocks[i].Preds {
				// not processed yet, a back edge on the first pass
				if doms[p] == NoBlock {
					continue
				}

				if u == NoBlock {
					u = p
					continue
				}

				u = intersect(doms, u, p)
			}

			if doms[i] != u {
				doms[i] = u
				changed = true
			}
		}
	}

	c.blocks[0].Dom = NoBlock
	c.blocks[0].DomDepth = 0

	for i := 1; i < len(c.blocks); i++ {
		b := &c.blocks[i]

		b.Dom = doms[i]
		b.DomDepth = c.blocks[b.Dom].DomDepth + 1
	}

	c.hasDoms = true

	tr.V("dom").Printw("dominators", "iterations", iters, "doms", doms)
}

func intersect(doms []BlockID, a, b BlockID) BlockID {
	for a != b {
		for a > b {
			a = doms[a]
		}

		for b > a {
			b = doms[b]
		}
	}

	return a
}

// Dominates reports whether a dominates b. Every block dominates itself.
// Dominators must be computed.
func (c *CFG) Dominates(a, b BlockID) bool {
	if !c.hasDoms {
		bug("dominators are not computed")
	}

	for b > a {
		b = c.blocks[b].Dom
		if b == NoBlock {
			return false
		}
	}

	return a == b
}

// CommonDominator returns the nearest block dominating both a and b.
func (c *CFG) CommonDominator(a, b BlockID) BlockID {
	if !c.hasDoms {
		bug("dominators are not computed")
	}

	for a != b {
		for a > b {
			a = c.blocks[a].Dom
		}

		for b > a {
			b = c.blocks[b].Dom
		}
	}

	return a
}

package cfg

import (
	"slices"

	"github.com/slowlang/blockcfg/compiler/ir"
	"github.com/slowlang/blockcfg/compiler/set"
	"tlog.app/go/errors"
)

// Verify checks structural invariants of the computed graph and returns
// the first violation found. It never panics on a malformed graph.
func (c *CFG) Verify() error {
	if len(c.blocks) == 0 {
		return errors.New("no blocks")
	}

	if c.nodeToBlock.Get(c.g.Start()) != 0 {
		return errors.New("start node is in block %v, want 0", c.nodeToBlock.Get(c.g.Start()))
	}

	if n := len(c.blocks[0].Preds); n != 0 {
		return errors.New("start block has %d predecessors", n)
	}

	for i := range c.blocks {
		if err := c.verifyBlock(&c.blocks[i], i); err != nil {
			return errors.Wrap(err, "block %v", i)
		}
	}

	for i := range c.loops {
		if err := c.verifyLoop(&c.loops[i], i); err != nil {
			return errors.Wrap(err, "loop %v", i)
		}
	}

	return nil
}

func (c *CFG) verifyBlock(b *Block, i int) error {
	valid := func(id BlockID) bool { return id >= 0 && int(id) < len(c.blocks) }

	if b.ID != BlockID(i) {
		return errors.New("id %v at index %v", b.ID, i)
	}

	if c.nodeToBlock.Get(b.Begin) != b.ID || c.nodeToBlock.Get(b.End) != b.ID {
		return errors.New("begin %v or end %v maps to another block", b.Begin, b.End)
	}

	if !c.g.Kind(b.Begin).IsBegin() {
		return errors.New("begins with %v", c.g.Kind(b.Begin))
	}

	backEdge := c.IsLoopEnd(b.ID)

	for _, s := range b.Succs {
		if !valid(s) {
			return errors.New("invalid successor %v", s)
		}

		if !slices.Contains(c.blocks[s].Preds, b.ID) {
			return errors.New("successor %v does not list it as predecessor", s)
		}

		if backEdge {
			if c.g.Kind(c.blocks[s].Begin) != ir.LoopBegin || s > b.ID {
				return errors.New("back edge to %v which is not a preceding loop header", s)
			}

			continue
		}

		if s <= b.ID {
			return errors.New("forward edge to %v breaks reverse postorder", s)
		}
	}

	for _, p := range b.Preds {
		if !valid(p) {
			return errors.New("invalid predecessor %v", p)
		}

		if !slices.Contains(c.blocks[p].Succs, b.ID) {
			return errors.New("predecessor %v does not list it as successor", p)
		}
	}

	if b.Probability < MinProbability {
		return errors.New("probability %v below minimum", b.Probability)
	}

	if b.Postdom != NoBlock {
		if !valid(b.Postdom) || b.Postdom <= b.ID {
			return errors.New("postdominator %v", b.Postdom)
		}

		if slices.Contains(b.Succs, b.Postdom) && len(b.Succs) > 1 {
			return errors.New("postdominator %v is a direct successor", b.Postdom)
		}
	}

	if c.hasDoms && i != 0 {
		if !valid(b.Dom) || b.Dom >= b.ID {
			return errors.New("dominator %v", b.Dom)
		}

		if b.DomDepth != c.blocks[b.Dom].DomDepth+1 {
			return errors.New("dominator depth %v, dominator's %v", b.DomDepth, c.blocks[b.Dom].DomDepth)
		}
	}

	if b.Loop != NoLoop {
		if int(b.Loop) >= len(c.loops) || !c.loops[b.Loop].Contains(b.ID) {
			return errors.New("not a member of its loop %v", b.Loop)
		}
	}

	return nil
}

func (c *CFG) verifyLoop(l *Loop, i int) error {
	if l.Index != LoopID(i) {
		return errors.New("index %v at %v", l.Index, i)
	}

	if len(l.Blocks) == 0 || l.Blocks[0] != l.Header {
		return errors.New("header %v is not the first member", l.Header)
	}

	if c.g.Kind(c.blocks[l.Header].Begin) != ir.LoopBegin {
		return errors.New("header %v is not a loop begin", l.Header)
	}

	// a later loop may take the header over through an irregular exit
	if !l.Contains(l.Header) {
		return errors.New("header %v is not a member", l.Header)
	}

	seen := set.MakeBits[BlockID](len(c.blocks))

	for _, b := range l.Blocks {
		if seen.IsSet(b) {
			return errors.New("block %v listed twice", b)
		}

		seen.Set(b)
	}

	if seen.Size() != l.members.Size() {
		return errors.New("member set out of sync: %d listed, %d set", seen.Size(), l.members.Size())
	}

	for _, e := range l.Exits {
		if l.Contains(e) {
			return errors.New("exit %v is a member", e)
		}

		if len(c.blocks[e].Preds) != 1 {
			return errors.New("exit %v has %d predecessors", e, len(c.blocks[e].Preds))
		}

		if p := c.blocks[e].Preds[0]; !l.Contains(p) {
			return errors.New("exit %v predecessor %v is outside", e, p)
		}
	}

	if l.Parent != NoLoop {
		if l.Parent >= l.Index {
			return errors.New("parent %v discovered later", l.Parent)
		}

		if p := &c.loops[l.Parent]; !p.Contains(l.Header) || l.Depth != p.Depth+1 {
			return errors.New("not nested in parent %v", l.Parent)
		}
	} else if l.Depth != 1 {
		return errors.New("outermost loop at depth %v", l.Depth)
	}

	return nil
}

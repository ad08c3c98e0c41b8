package cfg

import (
	"context"

	"github.com/slowlang/blockcfg/compiler/ir"
	"tlog.app/go/tlog"
)

type floodDir bool

const (
	backward floodDir = true
	forward  floodDir = false
)

// ComputeLoops discovers natural loops in a single reverse postorder scan.
//
// Outer headers precede inner ones in reverse postorder, so inner loops
// restamp their blocks after the outer flood: Block.Loop ends up being
// the innermost loop, while outer loops still list nested blocks as members.
// An irregular exit floods forward and may take over blocks of other loops,
// headers included: the loop discovered last owns them.
func (c *CFG) ComputeLoops(ctx context.Context) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "cfg: loops")
	defer tr.Finish()

	c.loops = nil

	for i := range c.blocks {
		c.blocks[i].Loop = NoLoop
	}

	if !c.g.HasLoops() {
		return
	}

	exits := c.g.GraphStage().LoopExitsAllowed()
	stack := make([]BlockID, 0, len(c.blocks))

	for i := range c.blocks {
		h := &c.blocks[i]
		begin := h.Begin

		if c.g.Kind(begin) != ir.LoopBegin {
			continue
		}

		id := c.newLoop(h)

		for _, end := range c.g.LoopEnds(begin) {
			stack = c.flood(ctx, c.blockOf(end), id, stack, backward)
		}

		if !exits {
			continue
		}

		for _, exit := range c.g.LoopExits(begin) {
			eb := c.blockOf(exit)

			if n := len(c.blocks[eb].Preds); n != 1 {
				bug("loop exit block %v has %d predecessors", eb, n)
			}

			stack = c.flood(ctx, c.blocks[eb].Preds[0], id, stack, backward)

			c.loops[id].Exits = append(c.loops[id].Exits, eb)
		}

		// flood may append to the member list
		size := len(c.loops[id].Blocks)

		for j := 0; j < size; j++ {
			m := c.loops[id].Blocks[j]

			for _, s := range c.blocks[m].Succs {
				if c.blocks[s].Loop == id {
					continue
				}

				sb := c.blocks[s].Begin
				if c.g.Kind(sb) == ir.LoopExit && c.g.Target(sb) == begin {
					continue
				}

				tr.Printw("unexpected loop exit, including whole branch in the loop", "loop", id, "from", m, "block", s)

				stack = c.flood(ctx, s, id, stack, forward)
			}
		}

		tr.V("loops").Printw("loop", "loop", &c.loops[id], "blocks", c.loops[id].Blocks, "exits", c.loops[id].Exits)
	}
}

func (c *CFG) newLoop(h *Block) LoopID {
	id := LoopID(len(c.loops))

	l := Loop{
		Index:  id,
		Header: h.ID,
		Parent: h.Loop,
		Depth:  1,
	}

	if l.Parent != NoLoop {
		p := &c.loops[l.Parent]

		l.Depth = p.Depth + 1
		p.Children = append(p.Children, id)
	}

	c.loops = append(c.loops, l)

	h.Loop = id
	c.loops[id].add(h.ID)

	return id
}

// flood stamps start and every block reachable from it in direction dir
// with loop l, stopping at blocks stamped already.
func (c *CFG) flood(ctx context.Context, start BlockID, l LoopID, stack []BlockID, dir floodDir) []BlockID {
	if c.blocks[start].Loop == l {
		return stack
	}

	tr := tlog.SpanFromContext(ctx)

	mark := func(b BlockID) {
		c.blocks[b].Loop = l
		c.loops[l].add(b)

		stack = append(stack, b)
	}

	stack = stack[:0]

	mark(start)

	for len(stack) != 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		next := c.blocks[b].Preds
		if dir == forward {
			next = c.blocks[b].Succs
		}

		for _, x := range next {
			if c.blocks[x].Loop != l {
				mark(x)
			}
		}
	}

	tr.V("loop_flood").Printw("flood", "loop", l, "start", start, "backward", bool(dir), "size", len(c.loops[l].Blocks))

	return stack
}

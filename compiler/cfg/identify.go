package cfg

import (
	"context"

	"github.com/slowlang/blockcfg/compiler/ir"
	"tlog.app/go/tlog"
)

func (c *CFG) identifyBlocks(ctx context.Context) {
	c.partition(ctx)
	c.connect(ctx)
}

// partition creates one block per begin node and assigns every node
// to the block it belongs to.
func (c *CFG) partition(ctx context.Context) {
	tr := tlog.SpanFromContext(ctx)

	begins := c.g.Begins()

	c.nodeToBlock = make(NodeMap, c.g.NumNodes())
	for i := range c.nodeToBlock {
		c.nodeToBlock[i] = NoBlock
	}

	c.blocks = make([]Block, len(begins))

	for i, begin := range begins {
		b := &c.blocks[i]

		*b = Block{
			ID:      BlockID(i),
			Begin:   begin,
			End:     ir.Nil,
			Loop:    NoLoop,
			Postdom: NoBlock,
			Dom:     NoBlock,
		}

		c.identifyBlock(b)

		tr.V("partition").Printw("block identified", "arena", i, "begin", begin, "end", b.End)
	}
}

func (c *CFG) identifyBlock(b *Block) {
	cur := b.Begin

	for {
		c.assign(cur, b.ID)

		next := c.g.Next(cur)
		if next == ir.Nil {
			bug("node %v (%v): no next node", cur, c.g.Kind(cur))
		}

		switch k := c.g.Kind(next); {
		case k.IsBegin():
			b.End = cur
			return
		case k == ir.Fixed:
			cur = next
		default:
			c.assign(next, b.ID)
			b.End = next
			return
		}
	}
}

func (c *CFG) assign(n ir.Node, b BlockID) {
	if c.g.Deleted(n) {
		bug("node %v (%v): deleted node reached from block %v", n, c.g.Kind(n), b)
	}

	if prev := c.nodeToBlock[n]; prev != NoBlock {
		bug("node %v (%v): already in block %v, visited again from block %v", n, c.g.Kind(n), prev, b)
	}

	c.nodeToBlock[n] = b
}

// connect sets predecessors and successors of all blocks and numbers them
// in reverse postorder, so that every forward edge goes to a greater id.
// Blocks are then reordered so that a block id is its index.
func (c *CFG) connect(ctx context.Context) {
	tr := tlog.SpanFromContext(ctx)

	n := len(c.blocks)

	stack := make([]BlockID, 0, n)
	order := make([]BlockID, n)
	count := 0

	start := c.nodeToBlock.Get(c.g.Start())
	if start == NoBlock {
		bug("start node %v has no block", c.g.Start())
	}

	c.blocks[start].Preds = []BlockID{}

	stack = append(stack, start)

	for len(stack) != 0 {
		id := stack[len(stack)-1]
		b := &c.blocks[id]

		switch b.state {
		case unvisited:
			// successors go on top of b, so b is finalized after them
			stack = c.successors(b, stack)
			b.state = discovered

			c.predecessors(b)
		case discovered:
			stack = stack[:len(stack)-1]
			count++

			order[n-count] = id
			b.state = finalized
		default:
			bug("block %v (begin %v) reached again after finalization", id, b.Begin)
		}
	}

	if count != n {
		bug("%d of %d blocks reachable from start", count, n)
	}

	c.renumber(order)

	if tr.If("dump_rpo") {
		for i := range c.blocks {
			tr.Printw("rpo", "id", i, "begin", c.blocks[i].Begin, "end", c.blocks[i].End, "preds", c.blocks[i].Preds, "succs", c.blocks[i].Succs)
		}
	}
}

func (c *CFG) successors(b *Block, stack []BlockID) []BlockID {
	push := func(s BlockID) {
		if c.blocks[s].state == unvisited {
			stack = append(stack, s)
		}
	}

	last := b.End

	switch k := c.g.Kind(last); {
	case k == ir.End:
		m := c.blockOf(c.g.Target(last))

		push(m)

		b.Succs = []BlockID{m}
	case k == ir.If:
		succs := c.g.Successors(last)
		if len(succs) != 2 {
			bug("block %v: if node %v has %d successors", b.ID, last, len(succs))
		}

		t := c.blockOf(succs[0])
		f := c.blockOf(succs[1])

		push(t)
		push(f)

		b.Succs = []BlockID{t, f}

		c.blocks[t].Preds = []BlockID{b.ID}
		c.blocks[f].Preds = []BlockID{b.ID}
	case k == ir.LoopEnd:
		// the header is on the stack already
		b.Succs = []BlockID{c.blockOf(c.g.Target(last))}
	case k.HasNext() || k == ir.Switch || k == ir.Return:
		succs := c.g.Successors(last)

		b.Succs = make([]BlockID, len(succs))

		for i, s := range succs {
			sb := c.blockOf(s)

			push(sb)

			b.Succs[i] = sb
			c.blocks[sb].Preds = []BlockID{b.ID}
		}
	default:
		bug("block %v: unsupported block end %v (%v)", b.ID, last, k)
	}

	return stack
}

// predecessors sets merge predecessors in phi input order.
func (c *CFG) predecessors(b *Block) {
	begin := b.Begin

	switch c.g.Kind(begin) {
	case ir.LoopBegin:
		fwd := c.g.ForwardEnds(begin)
		ends := c.g.LoopEnds(begin)

		b.Preds = make([]BlockID, 0, len(fwd)+len(ends))

		for _, e := range fwd {
			b.Preds = append(b.Preds, c.blockOf(e))
		}

		for _, e := range ends {
			b.Preds = append(b.Preds, c.blockOf(e))
		}
	case ir.Merge:
		fwd := c.g.ForwardEnds(begin)

		b.Preds = make([]BlockID, len(fwd))

		for i, e := range fwd {
			b.Preds[i] = c.blockOf(e)
		}
	}
}

func (c *CFG) blockOf(n ir.Node) BlockID {
	id := c.nodeToBlock.Get(n)
	if id == NoBlock {
		bug("node %v (%v) is not in any block", n, c.g.Kind(n))
	}

	return id
}

// renumber moves blocks so that order[i] becomes block i and rewrites all references.
func (c *CFG) renumber(order []BlockID) {
	rank := make([]BlockID, len(order))

	for i, old := range order {
		rank[old] = BlockID(i)
	}

	blocks := make([]Block, len(order))

	for i, old := range order {
		b := c.blocks[old]

		b.ID = BlockID(i)

		for j, p := range b.Preds {
			b.Preds[j] = rank[p]
		}

		for j, s := range b.Succs {
			b.Succs[j] = rank[s]
		}

		blocks[i] = b
	}

	for n, id := range c.nodeToBlock {
		if id != NoBlock {
			c.nodeToBlock[n] = rank[id]
		}
	}

	c.blocks = blocks
}

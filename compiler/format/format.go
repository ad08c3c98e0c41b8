package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/blockcfg/compiler/cfg"
	"github.com/slowlang/blockcfg/compiler/ir"
)

// Format appends a text dump of x to b.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	switch x := x.(type) {
	case *cfg.CFG:
		return formatCFG(ctx, b, x)
	case *ir.Graph:
		return formatGraph(ctx, b, x)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

// Hot appends the n hottest blocks of c.
func Hot(ctx context.Context, b []byte, c *cfg.CFG, n int) []byte {
	g := c.Graph()

	b = hfmt.Appendf(b, "hot blocks of %s\n", g.GraphName())

	for i, blk := range c.HotBlocks(n) {
		b = hfmt.Appendf(b, "%2d  B%d [%s..%s] p=%g", i+1, blk.ID, nodeName(g, blk.Begin), nodeName(g, blk.End), blk.Probability)

		if blk.Loop != cfg.NoLoop {
			b = hfmt.Appendf(b, " loop=L%d depth=%d", blk.Loop, c.Loop(blk.Loop).Depth)
		}

		b = append(b, '\n')
	}

	return b
}

func formatCFG(ctx context.Context, b []byte, c *cfg.CFG) ([]byte, error) {
	g := c.Graph()

	b = hfmt.Appendf(b, "cfg %s: %d blocks, %d loops\n", g.GraphName(), c.NumBlocks(), len(c.Loops()))

	for _, blk := range c.Blocks() {
		b = hfmt.Appendf(b, "B%d [%s..%s] p=%g", blk.ID, nodeName(g, blk.Begin), nodeName(g, blk.End), blk.Probability)

		b = append(b, " preds="...)
		b = blocks(b, blk.Preds)

		b = append(b, " succs="...)
		b = blocks(b, blk.Succs)

		b = append(b, " loop="...)
		b = ref(b, 'L', int(blk.Loop))

		b = append(b, " pdom="...)
		b = ref(b, 'B', int(blk.Postdom))

		b = append(b, " dom="...)
		b = ref(b, 'B', int(blk.Dom))

		b = append(b, '\n')
	}

	for _, l := range c.Loops() {
		b = hfmt.Appendf(b, "L%d header=B%d depth=%d parent=", l.Index, l.Header, l.Depth)
		b = ref(b, 'L', int(l.Parent))

		b = append(b, " blocks="...)
		b = blocks(b, l.Blocks)

		b = append(b, " exits="...)
		b = blocks(b, l.Exits)

		b = append(b, '\n')
	}

	return b, nil
}

func formatGraph(ctx context.Context, b []byte, g *ir.Graph) ([]byte, error) {
	b = hfmt.Appendf(b, "graph %s: %d nodes, stage %v\n", g.Name, len(g.Nodes), g.Stage)

	for i, d := range g.Nodes {
		n := ir.Node(i)

		if d.Deleted {
			b = hfmt.Appendf(b, "%3d %s deleted\n", i, nodeName(g, n))
			continue
		}

		b = hfmt.Appendf(b, "%3d %s %v", i, nodeName(g, n), d.Kind)

		if d.Kind.HasNext() && d.Next != ir.Nil {
			b = hfmt.Appendf(b, " next=%s", nodeName(g, d.Next))
		}

		if d.Kind.IsSplit() {
			b = append(b, " succs=["...)

			for j, s := range d.Succs {
				if j != 0 {
					b = append(b, ' ')
				}

				b = hfmt.Appendf(b, "%s:%g", nodeName(g, s), g.Probability(n, s))
			}

			b = append(b, ']')
		}

		if d.Kind.IsMerge() {
			b = nodes(b, g, " ends=", d.Ends)
		}

		if d.Kind == ir.LoopBegin {
			b = hfmt.Appendf(b, " freq=%g", d.Frequency)
			b = nodes(b, g, " loop_ends=", d.LoopEnds)
			b = nodes(b, g, " loop_exits=", d.LoopExits)
		}

		if d.Target != ir.Nil {
			b = hfmt.Appendf(b, " target=%s", nodeName(g, d.Target))
		}

		b = append(b, '\n')
	}

	return b, nil
}

func nodeName(g cfg.Graph, n ir.Node) string {
	if name := g.NodeName(n); name != "" {
		return name
	}

	return string(hfmt.Appendf(nil, "n%d", n))
}

func blocks(b []byte, ids []cfg.BlockID) []byte {
	b = append(b, '[')

	for i, id := range ids {
		if i != 0 {
			b = append(b, ' ')
		}

		b = hfmt.Appendf(b, "B%d", id)
	}

	return append(b, ']')
}

func nodes(b []byte, g *ir.Graph, key string, ns []ir.Node) []byte {
	b = append(b, key...)
	b = append(b, '[')

	for i, n := range ns {
		if i != 0 {
			b = append(b, ' ')
		}

		b = append(b, nodeName(g, n)...)
	}

	return append(b, ']')
}

func ref(b []byte, prefix byte, id int) []byte {
	if id < 0 {
		return append(b, '-')
	}

	return hfmt.Appendf(b, "%c%d", prefix, id)
}

package cfg

import (
	"context"
	"testing"

	"github.com/slowlang/blockcfg/compiler/ir"
	"github.com/stretchr/testify/require"
)

type nodes map[string]ir.Node

func compute(t testing.TB, g Graph, opts Options) *CFG {
	t.Helper()

	c, err := Compute(context.Background(), g, opts)
	require.NoError(t, err)

	return c
}

// start -> a -> b -> c -> return
func straightGraph() (*ir.Graph, nodes) {
	g := ir.New("straight")

	a, b, c := g.Fixed("a"), g.Fixed("b"), g.Fixed("c")
	r := g.Return()

	g.Chain(g.Start(), a, b, c, r)

	return g, nodes{"a": a, "b": b, "c": c, "return": r}
}

// start: if 0.25 ? t : f; merge(t, f); return
func diamondGraph() (*ir.Graph, nodes) {
	g := ir.New("diamond")

	t, f := g.Begin(), g.Begin()
	split := g.If(t, f, 0.25)
	g.Chain(g.Start(), split)

	te, fe := g.End(), g.End()
	g.Chain(t, te)
	g.Chain(f, fe)

	m := g.Merge(te, fe)
	r := g.Return()
	g.Chain(m, r)

	return g, nodes{"if": split, "t": t, "f": f, "te": te, "fe": fe, "merge": m, "return": r}
}

// start -> loop(x8) -> body -> loop end; no exits
func simpleLoopGraph() (*ir.Graph, nodes) {
	g := ir.New("simple_loop")

	e0 := g.End()
	g.Chain(g.Start(), e0)

	lb := g.LoopBegin(8, e0)
	body := g.Begin()
	w := g.Fixed("work")
	le := g.LoopEnd(lb)
	g.Chain(lb, body, w, le)

	return g, nodes{"entry": e0, "loop": lb, "body": body, "work": w, "loop_end": le}
}

// start -> loop(x4): if 0.75 ? continue : exit -> return
func exitLoopGraph() (*ir.Graph, nodes) {
	g := ir.New("exit_loop")

	e0 := g.End()
	g.Chain(g.Start(), e0)

	lb := g.LoopBegin(4, e0)

	t := g.Begin()
	x := g.LoopExit(lb)
	split := g.If(t, x, 0.75)
	g.Chain(lb, split)

	le := g.LoopEnd(lb)
	g.Chain(t, le)

	r := g.Return()
	g.Chain(x, r)

	return g, nodes{"loop": lb, "if": split, "continue": t, "exit": x, "loop_end": le, "return": r}
}

// exitLoopGraph with a plain begin instead of the loop exit.
func irregularExitGraph() (*ir.Graph, nodes) {
	g := ir.New("irregular_exit")

	e0 := g.End()
	g.Chain(g.Start(), e0)

	lb := g.LoopBegin(5, e0)

	t, x := g.Begin(), g.Begin()
	split := g.If(t, x, 0.9)
	g.Chain(lb, split)

	le := g.LoopEnd(lb)
	g.Chain(t, le)

	r := g.Return()
	g.Chain(x, r)

	return g, nodes{"loop": lb, "continue": t, "escape": x, "return": r}
}

// outer(x2) { inner(x3) { if 0.5 continue inner } ; if 0.5 continue outer }; return
func nestedLoopsGraph() (*ir.Graph, nodes) {
	g := ir.New("nested_loops")

	e0 := g.End()
	g.Chain(g.Start(), e0)

	outer := g.LoopBegin(2, e0)
	ie := g.End()
	g.Chain(outer, ie)

	inner := g.LoopBegin(3, ie)
	ib, ix := g.Begin(), g.LoopExit(inner)
	iif := g.If(ib, ix, 0.5)
	g.Chain(inner, iif)

	ile := g.LoopEnd(inner)
	g.Chain(ib, ile)

	ob, ox := g.Begin(), g.LoopExit(outer)
	oif := g.If(ob, ox, 0.5)
	g.Chain(ix, oif)

	ole := g.LoopEnd(outer)
	g.Chain(ob, ole)

	r := g.Return()
	g.Chain(ox, r)

	return g, nodes{
		"outer": outer, "inner": inner,
		"inner_body": ib, "inner_exit": ix,
		"outer_body": ob, "outer_exit": ox,
		"return": r,
	}
}

// loop a(x2) { if 0.5 continue }; loop b(x2) { if 0.5 continue }; return
func siblingLoopsGraph() (*ir.Graph, nodes) {
	g := ir.New("sibling_loops")

	e0 := g.End()
	g.Chain(g.Start(), e0)

	la := g.LoopBegin(2, e0)
	at, ax := g.Begin(), g.LoopExit(la)
	g.Chain(la, g.If(at, ax, 0.5))
	g.Chain(at, g.LoopEnd(la))

	e1 := g.End()
	g.Chain(ax, e1)

	lb := g.LoopBegin(2, e1)
	bt, bx := g.Begin(), g.LoopExit(lb)
	g.Chain(lb, g.If(bt, bx, 0.5))
	g.Chain(bt, g.LoopEnd(lb))

	r := g.Return()
	g.Chain(bx, r)

	return g, nodes{"a": la, "a_exit": ax, "b": lb, "b_exit": bx}
}

// outer(x2) { inner(x4) { if 0.75 continue inner else escape }; escape continues outer }
// The escape is a plain begin, so the inner loop floods over the outer back edge.
func escapeToOuterGraph() (*ir.Graph, nodes) {
	g := ir.New("escape_to_outer")

	e0 := g.End()
	g.Chain(g.Start(), e0)

	outer := g.LoopBegin(2, e0)
	ie := g.End()
	g.Chain(outer, ie)

	inner := g.LoopBegin(4, ie)
	ib, esc := g.Begin(), g.Begin()
	g.Chain(inner, g.If(ib, esc, 0.75))
	g.Chain(ib, g.LoopEnd(inner))
	g.Chain(esc, g.LoopEnd(outer))

	return g, nodes{"outer": outer, "inner": inner, "inner_body": ib, "escape": esc}
}

// loop a(x2) { if 0.5 continue else escape }; escape -> loop b(x3) { if 0.5 continue }; return
// a leaves through a plain begin and absorbs all of b.
func escapeToSiblingGraph() (*ir.Graph, nodes) {
	g := ir.New("escape_to_sibling")

	e0 := g.End()
	g.Chain(g.Start(), e0)

	la := g.LoopBegin(2, e0)
	at, esc := g.Begin(), g.Begin()
	g.Chain(la, g.If(at, esc, 0.5))
	g.Chain(at, g.LoopEnd(la))

	e1 := g.End()
	g.Chain(esc, e1)

	lb := g.LoopBegin(3, e1)
	bt, bx := g.Begin(), g.LoopExit(lb)
	g.Chain(lb, g.If(bt, bx, 0.5))
	g.Chain(bt, g.LoopEnd(lb))

	r := g.Return()
	g.Chain(bx, r)

	return g, nodes{"a": la, "a_body": at, "escape": esc, "b": lb, "b_body": bt, "b_exit": bx}
}

// switch .5/.3/.2 over three arms merged in order (arm2, arm0, arm1)
func switchGraph() (*ir.Graph, nodes) {
	g := ir.New("switch")

	a0, a1, a2 := g.Begin(), g.Begin(), g.Begin()
	sw := g.Switch([]ir.Node{a0, a1, a2}, []float64{0.5, 0.3, 0.2})
	g.Chain(g.Start(), sw)

	e0, e1, e2 := g.End(), g.End(), g.End()
	g.Chain(a0, e0)
	g.Chain(a1, e1)
	g.Chain(a2, e2)

	m := g.Merge(e2, e0, e1)
	r := g.Return()
	g.Chain(m, r)

	return g, nodes{"switch": sw, "arm0": a0, "arm1": a1, "arm2": a2, "merge": m}
}

// badKind reports an unknown kind for one node.
type badKind struct {
	*ir.Graph

	node ir.Node
}

func (g badKind) Kind(n ir.Node) ir.Kind {
	if n == g.node {
		return ir.Kind(100)
	}

	return g.Graph.Kind(n)
}

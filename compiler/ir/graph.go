package ir

import (
	"tlog.app/go/errors"
)

func New(name string) *Graph {
	g := &Graph{Name: name}

	g.start = g.Add(Start, "start")

	return g
}

// Add appends an unlinked node of kind k.
func (g *Graph) Add(k Kind, name string) Node {
	n := Node(len(g.Nodes))

	g.Nodes = append(g.Nodes, NodeData{
		Kind:   k,
		Name:   name,
		Next:   Nil,
		Target: Nil,
	})

	return n
}

func (g *Graph) Node(n Node) *NodeData { return &g.Nodes[n] }

func (g *Graph) Start() Node { return g.start }

// SetStart makes n the entry node. n must be of kind Start.
func (g *Graph) SetStart(n Node) { g.start = n }

func (g *Graph) Fixed(name string) Node { return g.Add(Fixed, name) }

func (g *Graph) Begin() Node { return g.Add(Begin, "") }

func (g *Graph) Return() Node { return g.Add(Return, "return") }

func (g *Graph) End() Node { return g.Add(End, "end") }

// If adds a two-way split. p is the probability of taking t.
func (g *Graph) If(t, f Node, p float64) Node {
	n := g.Add(If, "if")

	d := g.Node(n)
	d.Succs = []Node{t, f}
	d.Probs = []float64{p, 1 - p}

	return n
}

// Switch adds an n-way split. probs must sum to 1.
func (g *Graph) Switch(succs []Node, probs []float64) Node {
	n := g.Add(Switch, "switch")

	d := g.Node(n)
	d.Succs = dup(succs)
	d.Probs = dup(probs)

	return n
}

// Merge adds a merge of the given forward ends, preserving their order.
func (g *Graph) Merge(ends ...Node) Node {
	m := g.Add(Merge, "merge")

	g.Node(m).Ends = dup(ends)

	for _, e := range ends {
		g.Node(e).Target = m
	}

	return m
}

// LoopBegin adds a loop header entered by the forward ends.
func (g *Graph) LoopBegin(freq float64, ends ...Node) Node {
	l := g.Add(LoopBegin, "loop")

	d := g.Node(l)
	d.Frequency = freq
	d.Ends = dup(ends)

	for _, e := range ends {
		g.Node(e).Target = l
	}

	return l
}

func (g *Graph) LoopEnd(loop Node) Node {
	n := g.Add(LoopEnd, "loop_end")

	g.Node(n).Target = loop
	g.Node(loop).LoopEnds = append(g.Node(loop).LoopEnds, n)

	return n
}

func (g *Graph) LoopExit(loop Node) Node {
	n := g.Add(LoopExit, "loop_exit")

	g.Node(n).Target = loop
	g.Node(loop).LoopExits = append(g.Node(loop).LoopExits, n)

	return n
}

// Chain links every node to the following one through Next.
func (g *Graph) Chain(nodes ...Node) {
	for i := 1; i < len(nodes); i++ {
		g.Node(nodes[i-1]).Next = nodes[i]
	}
}

// Delete marks n as removed. Deleted nodes are not enumerated.
func (g *Graph) Delete(n Node) { g.Node(n).Deleted = true }

func (g *Graph) NumNodes() int { return len(g.Nodes) }

func (g *Graph) GraphName() string { return g.Name }

func (g *Graph) GraphStage() Stage { return g.Stage }

func (g *Graph) Kind(n Node) Kind { return g.Nodes[n].Kind }

func (g *Graph) Deleted(n Node) bool { return g.Nodes[n].Deleted }

func (g *Graph) Next(n Node) Node { return g.Nodes[n].Next }

func (g *Graph) Target(n Node) Node { return g.Nodes[n].Target }

func (g *Graph) ForwardEnds(n Node) []Node { return g.Nodes[n].Ends }

func (g *Graph) LoopEnds(n Node) []Node { return g.Nodes[n].LoopEnds }

func (g *Graph) LoopExits(n Node) []Node { return g.Nodes[n].LoopExits }

func (g *Graph) LoopFrequency(n Node) float64 { return g.Nodes[n].Frequency }

func (g *Graph) NodeName(n Node) string { return g.Nodes[n].Name }

// Successors returns control successors of n. End and LoopEnd nodes have none:
// they reach their target through Target.
func (g *Graph) Successors(n Node) []Node {
	d := &g.Nodes[n]

	switch {
	case d.Kind.HasNext():
		if d.Next == Nil {
			return nil
		}

		return []Node{d.Next}
	case d.Kind.IsSplit():
		return d.Succs
	}

	return nil
}

// Probability returns the probability of split transferring control to succ.
func (g *Graph) Probability(split, succ Node) float64 {
	d := &g.Nodes[split]

	for i, s := range d.Succs {
		if s == succ && i < len(d.Probs) {
			return d.Probs[i]
		}
	}

	return 0
}

// Begins returns all live block-beginning nodes in creation order.
func (g *Graph) Begins() []Node {
	var r []Node

	for i, d := range g.Nodes {
		if d.Deleted || !d.Kind.IsBegin() {
			continue
		}

		r = append(r, Node(i))
	}

	return r
}

func (g *Graph) HasLoops() bool {
	for _, d := range g.Nodes {
		if d.Kind == LoopBegin && !d.Deleted {
			return true
		}
	}

	return false
}

// Check reports malformed links that would make block construction panic.
func (g *Graph) Check() error {
	if g.start < 0 || int(g.start) >= len(g.Nodes) || g.Nodes[g.start].Kind != Start {
		return errors.New("no start node")
	}

	ref := func(n Node) bool { return n >= 0 && int(n) < len(g.Nodes) }

	for i, d := range g.Nodes {
		if d.Deleted {
			continue
		}

		if !d.Kind.Valid() {
			return errors.New("node %v (%s): invalid kind", i, d.Name)
		}

		if d.Kind.HasNext() && !ref(d.Next) {
			return errors.New("node %v (%s): %v without next", i, d.Name, d.Kind)
		}

		if d.Kind.IsSplit() {
			if len(d.Succs) == 0 || len(d.Succs) != len(d.Probs) {
				return errors.New("node %v (%s): %v has %d successors and %d probabilities", i, d.Name, d.Kind, len(d.Succs), len(d.Probs))
			}

			if d.Kind == If && len(d.Succs) != 2 {
				return errors.New("node %v (%s): if must have 2 successors", i, d.Name)
			}

			for _, s := range d.Succs {
				if !ref(s) || !g.Nodes[s].Kind.IsBegin() {
					return errors.New("node %v (%s): split successor %v is not a begin node", i, d.Name, s)
				}
			}
		}

		switch d.Kind {
		case End:
			if !ref(d.Target) || !g.Nodes[d.Target].Kind.IsMerge() {
				return errors.New("node %v (%s): end without merge", i, d.Name)
			}
		case LoopEnd, LoopExit:
			if !ref(d.Target) || g.Nodes[d.Target].Kind != LoopBegin {
				return errors.New("node %v (%s): %v without loop begin", i, d.Name, d.Kind)
			}
		}
	}

	return nil
}

func dup[T any](s []T) []T {
	return append([]T{}, s...)
}

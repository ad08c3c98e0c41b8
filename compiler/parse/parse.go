package parse

import (
	"bytes"
	"context"
	"os"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/blockcfg/compiler/ir"
)

type (
	file struct {
		Name  string `yaml:"name"`
		Stage string `yaml:"stage"`
		Nodes []node `yaml:"nodes"`
	}

	node struct {
		Name string `yaml:"name"`
		Kind string `yaml:"kind"`

		Next string `yaml:"next"`

		Succs []string  `yaml:"succs"`
		Probs []float64 `yaml:"probs"`

		Ends      []string `yaml:"ends"`
		Frequency float64  `yaml:"frequency"`

		Loop string `yaml:"loop"`
	}
)

func ParseFile(ctx context.Context, name string) (*ir.Graph, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(data), "name", name)

	return Parse(ctx, data)
}

// Parse decodes a YAML graph description.
//
// Nodes are referenced by name. Ends of merges and loop begins are listed
// in phi input order, loop ends and loop exits name their loop begin and
// are attached to it in the order they are declared.
func Parse(ctx context.Context, text []byte) (g *ir.Graph, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "parse graph", "size", len(text))
	defer tr.Finish("err", &err)

	var f file

	d := yaml.NewDecoder(bytes.NewReader(text))
	d.KnownFields(true)

	err = d.Decode(&f)
	if err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}

	g = ir.New(f.Name)

	var ok bool

	g.Stage, ok = ir.ParseStage(f.Stage)
	if !ok {
		return nil, errors.New("unknown stage: %q", f.Stage)
	}

	names := map[string]ir.Node{}
	started := false

	for i, x := range f.Nodes {
		k, ok := ir.ParseKind(x.Kind)
		if !ok {
			return nil, errors.New("node %d (%s): unknown kind: %q", i, x.Name, x.Kind)
		}

		if x.Name == "" {
			return nil, errors.New("node %d: no name", i)
		}

		if _, ok := names[x.Name]; ok {
			return nil, errors.New("node %d: duplicate name: %s", i, x.Name)
		}

		var n ir.Node

		if k == ir.Start {
			if started {
				return nil, errors.New("node %d (%s): second start node", i, x.Name)
			}

			started = true
			n = g.Start()
			g.Node(n).Name = x.Name
		} else {
			n = g.Add(k, x.Name)
		}

		names[x.Name] = n
	}

	if !started {
		return nil, errors.New("no start node")
	}

	ref := func(name string) (ir.Node, error) {
		n, ok := names[name]
		if !ok {
			return ir.Nil, errors.New("undefined node: %q", name)
		}

		return n, nil
	}

	refs := func(names []string) (r []ir.Node, err error) {
		for _, name := range names {
			n, err := ref(name)
			if err != nil {
				return nil, err
			}

			r = append(r, n)
		}

		return r, nil
	}

	for _, x := range f.Nodes {
		n := names[x.Name]
		d := g.Node(n)

		err = link(g, n, d, x, ref, refs)
		if err != nil {
			return nil, errors.Wrap(err, "node %s", x.Name)
		}
	}

	err = g.Check()
	if err != nil {
		return nil, errors.Wrap(err, "check graph")
	}

	tr.V("parse").Printw("graph parsed", "name", g.Name, "nodes", len(g.Nodes), "stage", g.Stage)

	return g, nil
}

func link(g *ir.Graph, n ir.Node, d *ir.NodeData, x node, ref func(string) (ir.Node, error), refs func([]string) ([]ir.Node, error)) (err error) {
	if x.Next != "" {
		if !d.Kind.HasNext() {
			return errors.New("%v node has no next", d.Kind)
		}

		d.Next, err = ref(x.Next)
		if err != nil {
			return errors.Wrap(err, "next")
		}
	}

	if len(x.Succs) != 0 || len(x.Probs) != 0 {
		if !d.Kind.IsSplit() {
			return errors.New("%v node has no successors list", d.Kind)
		}

		d.Succs, err = refs(x.Succs)
		if err != nil {
			return errors.Wrap(err, "succs")
		}

		d.Probs = x.Probs
	}

	if len(x.Ends) != 0 {
		if !d.Kind.IsMerge() {
			return errors.New("%v node has no ends", d.Kind)
		}

		d.Ends, err = refs(x.Ends)
		if err != nil {
			return errors.Wrap(err, "ends")
		}

		for _, e := range d.Ends {
			if g.Kind(e) != ir.End {
				return errors.New("end %v is %v", g.NodeName(e), g.Kind(e))
			}

			g.Node(e).Target = n
		}
	}

	if d.Kind == ir.LoopBegin {
		d.Frequency = x.Frequency
		if d.Frequency <= 0 {
			d.Frequency = 1
		}
	}

	if x.Loop != "" {
		if d.Kind != ir.LoopEnd && d.Kind != ir.LoopExit {
			return errors.New("%v node has no loop", d.Kind)
		}

		l, err := ref(x.Loop)
		if err != nil {
			return errors.Wrap(err, "loop")
		}

		if g.Kind(l) != ir.LoopBegin {
			return errors.New("loop %v is %v", x.Loop, g.Kind(l))
		}

		d.Target = l

		ld := g.Node(l)

		if d.Kind == ir.LoopEnd {
			ld.LoopEnds = append(ld.LoopEnds, n)
		} else {
			ld.LoopExits = append(ld.LoopExits, n)
		}
	}

	return nil
}

package cfg

import (
	"github.com/slowlang/blockcfg/compiler/ir"
	"github.com/slowlang/blockcfg/compiler/set"
	"tlog.app/go/tlog/tlwire"
)

type (
	BlockID int
	LoopID  int

	// NodeMap maps every ir.Node to the block owning it.
	NodeMap []BlockID

	Block struct {
		// ID is the reverse postorder number and the index in CFG.Blocks.
		ID BlockID

		Begin ir.Node
		End   ir.Node

		// Preds are ordered as the phi inputs of Begin:
		// forward ends first, then loop ends for loop headers.
		Preds []BlockID
		Succs []BlockID

		Probability float64

		Loop    LoopID
		Postdom BlockID

		Dom      BlockID
		DomDepth int

		state visitState
	}

	Loop struct {
		Index  LoopID
		Header BlockID

		Parent   LoopID
		Depth    int
		Children []LoopID

		// Blocks lists members in insertion order, Header first.
		Blocks []BlockID
		Exits  []BlockID

		members set.Bits[BlockID]
	}

	visitState uint8
)

const (
	NoBlock BlockID = -1
	NoLoop  LoopID  = -1
)

const (
	unvisited visitState = iota
	discovered
	finalized
)

func (b *Block) FirstPred() BlockID {
	if len(b.Preds) == 0 {
		return NoBlock
	}

	return b.Preds[0]
}

func (b *Block) FirstSucc() BlockID {
	if len(b.Succs) == 0 {
		return NoBlock
	}

	return b.Succs[0]
}

func (b *Block) InLoop() bool { return b.Loop != NoLoop }

func (l *Loop) Contains(b BlockID) bool { return l.members.IsSet(b) }

func (l *Loop) Size() int { return len(l.Blocks) }

func (l *Loop) add(b BlockID) {
	l.Blocks = append(l.Blocks, b)
	l.members.Set(b)
}

func (m NodeMap) Get(n ir.Node) BlockID {
	if n < 0 || int(n) >= len(m) {
		return NoBlock
	}

	return m[n]
}

func (b *Block) TlogAppend(buf []byte) []byte {
	var e tlwire.Encoder

	buf = e.AppendMap(buf, 6)
	buf = e.AppendKeyInt(buf, "id", int(b.ID))
	buf = e.AppendKeyInt(buf, "begin", int(b.Begin))
	buf = e.AppendKeyInt(buf, "end", int(b.End))
	buf = e.AppendKeyInt(buf, "preds", len(b.Preds))
	buf = e.AppendKeyInt(buf, "succs", len(b.Succs))
	buf = e.AppendKeyInt(buf, "loop", int(b.Loop))

	return buf
}

func (l *Loop) TlogAppend(buf []byte) []byte {
	var e tlwire.Encoder

	buf = e.AppendMap(buf, 5)
	buf = e.AppendKeyInt(buf, "index", int(l.Index))
	buf = e.AppendKeyInt(buf, "header", int(l.Header))
	buf = e.AppendKeyInt(buf, "depth", l.Depth)
	buf = e.AppendKeyInt(buf, "blocks", len(l.Blocks))
	buf = e.AppendKeyInt(buf, "exits", len(l.Exits))

	return buf
}

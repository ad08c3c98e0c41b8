package ir

import "tlog.app/go/tlog/tlwire"

type (
	Node int
	Kind int

	Stage int

	NodeData struct {
		Kind Kind
		Name string

		// Next is the single control successor of begin and Fixed nodes.
		Next Node

		// Succs and Probs describe If (true, false) and Switch nodes.
		Succs []Node
		Probs []float64

		// Target is the Merge or LoopBegin an End, LoopEnd or LoopExit refers to.
		Target Node

		// Ends are forward ends of a Merge or LoopBegin in phi input order.
		Ends []Node

		LoopEnds  []Node
		LoopExits []Node
		Frequency float64

		Deleted bool
	}

	Graph struct {
		Name  string
		Stage Stage

		Nodes []NodeData

		start Node
	}
)

const (
	Nil Node = -1
)

const (
	Invalid Kind = iota

	Start
	Begin
	Merge
	LoopBegin
	LoopExit

	Fixed

	End
	LoopEnd
	If
	Switch
	Return

	kindCount
)

const (
	StageFloatingGuards Stage = iota
	StageFixedDeopts
	StageAfterFSA
)

var kindNames = [kindCount]string{
	Invalid:   "invalid",
	Start:     "start",
	Begin:     "begin",
	Merge:     "merge",
	LoopBegin: "loop_begin",
	LoopExit:  "loop_exit",
	Fixed:     "fixed",
	End:       "end",
	LoopEnd:   "loop_end",
	If:        "if",
	Switch:    "switch",
	Return:    "return",
}

var stageNames = []string{
	StageFloatingGuards: "floating_guards",
	StageFixedDeopts:    "fixed_deopts",
	StageAfterFSA:       "after_fsa",
}

// IsBegin reports whether a node of this kind starts a block.
func (k Kind) IsBegin() bool {
	switch k {
	case Start, Begin, Merge, LoopBegin, LoopExit:
		return true
	}

	return false
}

// HasNext reports whether the node has exactly one successor stored in Next.
func (k Kind) HasNext() bool {
	return k.IsBegin() || k == Fixed
}

func (k Kind) IsSplit() bool { return k == If || k == Switch }

// IsEnd reports whether the node jumps to a merge point instead of
// naming its successor directly.
func (k Kind) IsEnd() bool { return k == End || k == LoopEnd }

func (k Kind) IsMerge() bool { return k == Merge || k == LoopBegin }

func (k Kind) Valid() bool { return k > Invalid && k < kindCount }

func (k Kind) String() string {
	if !k.Valid() {
		return kindNames[Invalid]
	}

	return kindNames[k]
}

func ParseKind(s string) (Kind, bool) {
	for k, n := range kindNames {
		if n == s && Kind(k) != Invalid {
			return Kind(k), true
		}
	}

	return Invalid, false
}

// LoopExitsAllowed reports whether loop exits still delimit loops at this stage.
func (s Stage) LoopExitsAllowed() bool { return s != StageAfterFSA }

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}

	return stageNames[s]
}

func ParseStage(s string) (Stage, bool) {
	if s == "" {
		return StageFloatingGuards, true
	}

	for i, n := range stageNames {
		if n == s {
			return Stage(i), true
		}
	}

	return 0, false
}

func (k Kind) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	return e.AppendString(b, k.String())
}

func (n NodeData) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 3)
	b = e.AppendKeyString(b, "kind", n.Kind.String())
	b = e.AppendKeyString(b, "name", n.Name)
	b = e.AppendKeyInt(b, "next", int(n.Next))

	return b
}

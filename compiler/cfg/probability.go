package cfg

import (
	"context"

	"github.com/slowlang/blockcfg/compiler/ir"
	"tlog.app/go/tlog"
)

// computeProbabilities estimates relative block frequencies in reverse postorder.
// Loop headers use forward predecessors only, scaled by the loop frequency,
// so back edge sources are never read before they are computed.
func (c *CFG) computeProbabilities(ctx context.Context) {
	tr := tlog.SpanFromContext(ctx)

	for i := range c.blocks {
		b := &c.blocks[i]

		var p float64

		switch {
		case c.g.Kind(b.Begin) == ir.LoopBegin:
			fwd := len(c.g.ForwardEnds(b.Begin))

			for _, pred := range b.Preds[:fwd] {
				p += c.blocks[pred].Probability
			}

			p *= c.g.LoopFrequency(b.Begin)
		case len(b.Preds) == 0:
			p = 1
		case len(b.Preds) == 1:
			pred := &c.blocks[b.Preds[0]]

			p = pred.Probability

			if len(pred.Succs) > 1 {
				if !c.g.Kind(pred.End).IsSplit() {
					bug("block %v: predecessor %v has %d successors but ends with %v", b.ID, pred.ID, len(pred.Succs), c.g.Kind(pred.End))
				}

				p *= c.g.Probability(pred.End, b.Begin)
			}
		default:
			for _, pred := range b.Preds {
				p += c.blocks[pred].Probability
			}
		}

		if p < MinProbability {
			p = MinProbability
		}

		b.Probability = p

		tr.V("probability").Printw("block probability", "block", b.ID, "prob", p, "preds", b.Preds)
	}
}

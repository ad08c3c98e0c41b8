package cfg

import (
	"nikand.dev/go/heap"
)

// HotBlocks returns up to n blocks with the highest probability,
// hottest first. Equal probabilities are ordered by id.
func (c *CFG) HotBlocks(n int) []*Block {
	if n <= 0 {
		return nil
	}

	h := heap.Heap[*Block]{Less: colderFirst}

	for i := range c.blocks {
		h.Push(&c.blocks[i])

		if h.Len() > n {
			h.Pop()
		}
	}

	r := make([]*Block, h.Len())

	for i := len(r) - 1; i >= 0; i-- {
		r[i] = h.Pop()
	}

	return r
}

// colderFirst keeps the coldest block on top so it's dropped first.
func colderFirst(d []*Block, i, j int) bool {
	if d[i].Probability != d[j].Probability {
		return d[i].Probability < d[j].Probability
	}

	return d[i].ID > d[j].ID
}

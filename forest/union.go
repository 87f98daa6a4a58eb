package forest

import (
	"slices"

	"github.com/DavidBuchanan314/merkle-merge-tree/mmt"
)

// MergeWith returns the multiset union of two forests as a new canonical
// forest. Neither input is modified.
//
// The union is structural: the two height lists are treated as binary
// numerals and added, lowest height first. Wherever two trees land on the
// same height they are combined with the sorted merger and the result
// carries into the next height. Each forest contributes at most one tree
// per height, so at most three trees ever meet: the carry plus one from
// each side. In that case the two forest trees merge and become the new
// carry while the incoming carry stays put; the choice is arbitrary but
// must be fixed for roots to be reproducible.
func (f *Forest) MergeWith(other *Forest) (*Forest, error) {
	hasher := f.newHash()

	byHeight := func(forest *Forest) map[uint8]*mmt.PerfectTree {
		m := make(map[uint8]*mmt.PerfectTree, len(forest.trees))
		for _, t := range forest.trees {
			m[t.Height()] = t
		}
		return m
	}
	fTrees, oTrees := byHeight(f), byHeight(other)

	maxHeight := uint8(0)
	if len(f.trees) > 0 {
		maxHeight = f.trees[0].Height()
	}
	if len(other.trees) > 0 {
		maxHeight = max(maxHeight, other.trees[0].Height())
	}

	var out []*mmt.PerfectTree
	var carry *mmt.PerfectTree

	for h := uint8(0); h <= maxHeight; h++ {
		var queue []*mmt.PerfectTree
		if carry != nil {
			queue = append(queue, carry)
			carry = nil
		}
		if t, ok := fTrees[h]; ok {
			queue = append(queue, t)
		}
		if t, ok := oTrees[h]; ok {
			queue = append(queue, t)
		}

		var err error
		switch len(queue) {
		case 0:
		case 1:
			out = append(out, queue[0])
		case 2:
			if carry, err = mmt.Merge(hasher, queue[0], queue[1]); err != nil {
				return nil, err
			}
		case 3:
			out = append(out, queue[0])
			if carry, err = mmt.Merge(hasher, queue[1], queue[2]); err != nil {
				return nil, err
			}
		}
	}
	if carry != nil {
		out = append(out, carry)
	}

	// out accumulated shortest first; canonical order is tallest first
	slices.Reverse(out)

	nf := &Forest{
		newHash:     f.newHash,
		hashAlg:     f.hashAlg,
		trees:       out,
		cardinality: f.cardinality + other.cardinality,
	}
	nf.root = nf.computeRoot()
	return nf, nil
}

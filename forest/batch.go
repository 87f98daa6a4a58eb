package forest

import (
	"bytes"
	"slices"

	"github.com/DavidBuchanan314/merkle-merge-tree/mmt"
)

// FromBatch builds a forest over a whole multiset at once. The elements are
// sorted globally and then carved into perfect trees by the set bits of the
// count, largest first, so unlike incremental insertion the concatenated
// leaf order is fully sorted across subtrees and any permutation of the same
// multiset commits to the same root.
//
// A power of two count yields a single perfect tree: the fully sorted,
// single tree form with its simpler proofs is just this special case, no
// separate machinery. Counts in between decompose instead of promoting an
// odd node unpaired, which is what keeps every subtree perfect.
func FromBatch(elems [][]byte, opts ...Option) (*Forest, error) {
	f := New(opts...)
	if len(elems) == 0 {
		return f, nil
	}

	sorted := slices.Clone(elems)
	slices.SortStableFunc(sorted, bytes.Compare)

	hasher := f.newHash()
	n := uint64(len(sorted))

	var trees []*mmt.PerfectTree
	for b := 63; b >= 0; b-- {
		if n&(1<<b) == 0 {
			continue
		}
		take := uint64(1) << b
		tree, err := mmt.Build(hasher, sorted[:take])
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
		sorted = sorted[take:]
	}

	f.trees = trees
	f.cardinality = n
	f.root = f.computeRoot()
	return f, nil
}

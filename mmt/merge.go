package mmt

import (
	"bytes"
	"errors"
	"hash"
)

var (
	ErrHeightMismatch = errors.New("can only merge trees of equal height")
	ErrWidthMismatch  = errors.New("can only merge trees with equal digest widths")
)

// Merge combines two trees of equal height k into a new tree of height k+1.
// The inputs are not modified.
//
// When every leaf of a orders at or before every leaf of b, the result is
// produced by concatenation: the post order bodies are joined and a single
// new digest H_node(a.root, b.root) is appended, so the new root commits to
// the old roots by construction and no leaf is rehashed. This is the path
// taken by forest carry propagation when inserts arrive in element order.
//
// Otherwise the leaf streams are two way merged by element order (ties take
// the left input) and the result is rebuilt bottom up. The new root then has
// no fixed relation to the input roots, and proofs issued against them no
// longer verify.
func Merge(hasher hash.Hash, a *PerfectTree, b *PerfectTree) (*PerfectTree, error) {
	if a.height != b.height {
		return nil, ErrHeightMismatch
	}
	if a.width != b.width {
		return nil, ErrWidthMismatch
	}

	if bytes.Compare(a.MaxElement(), b.MinElement()) <= 0 {
		return concatMerge(hasher, a, b), nil
	}
	return sortedMerge(hasher, a, b)
}

func concatMerge(hasher hash.Hash, a *PerfectTree, b *PerfectTree) *PerfectTree {
	width := uint64(a.width)
	data := make([]byte, 0, nodeCountForHeight(a.height+1)*width)
	data = append(data, a.data...)
	data = append(data, b.data...)
	data = append(data, HashNode(hasher, a.Root(), b.Root())...)

	elems := make([][]byte, 0, a.LeafCount()+b.LeafCount())
	elems = append(elems, a.elems...)
	elems = append(elems, b.elems...)

	return &PerfectTree{height: a.height + 1, width: a.width, data: data, elems: elems}
}

func sortedMerge(hasher hash.Hash, a *PerfectTree, b *PerfectTree) (*PerfectTree, error) {
	n := a.LeafCount() + b.LeafCount()
	elems := make([][]byte, 0, n)
	leafHashes := make([][]byte, 0, n)

	var ai, bi uint64
	for ai < a.LeafCount() || bi < b.LeafCount() {
		takeA := bi == b.LeafCount() ||
			(ai < a.LeafCount() && bytes.Compare(a.elems[ai], b.elems[bi]) <= 0)
		if takeA {
			elems = append(elems, a.elems[ai])
			leafHashes = append(leafHashes, a.LeafHash(ai))
			ai++
		} else {
			elems = append(elems, b.elems[bi])
			leafHashes = append(leafHashes, b.LeafHash(bi))
			bi++
		}
	}
	return buildFromLeafHashes(hasher, elems, leafHashes)
}

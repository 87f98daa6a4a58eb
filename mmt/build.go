package mmt

import (
	"bytes"
	"errors"
	"hash"
)

var (
	ErrNotPowerOfTwo = errors.New("leaf count is not a power of two")
)

// Build constructs a perfect tree over the given element encodings, which
// must be weakly sorted and a power of two in number. The elements slice is
// retained by the tree.
func Build(hasher hash.Hash, elems [][]byte) (*PerfectTree, error) {
	if !IsPowerOfTwo(uint64(len(elems))) {
		return nil, ErrNotPowerOfTwo
	}
	for i := 1; i < len(elems); i++ {
		if bytes.Compare(elems[i-1], elems[i]) > 0 {
			return nil, ErrUnsortedLeaves
		}
	}
	leafHashes := make([][]byte, len(elems))
	for i, e := range elems {
		leafHashes[i] = HashLeaf(hasher, e)
	}
	return buildFromLeafHashes(hasher, elems, leafHashes)
}

// NewStub wraps a single element as a height zero tree. Its root is its leaf
// hash.
func NewStub(hasher hash.Hash, elem []byte) *PerfectTree {
	leafHash := HashLeaf(hasher, elem)
	return &PerfectTree{
		height: 0,
		width:  len(leafHash),
		data:   leafHash,
		elems:  [][]byte{elem},
	}
}

// buildFromLeafHashes runs the stack builder over precomputed leaf digests.
// Emitting leaf i completes one perfect subtree per trailing one of i, so
// after each leaf we pop and combine that many pending roots. The emit order
// is exactly the post order layout, which is why the tree body can be
// streamed to storage as it is produced.
func buildFromLeafHashes(hasher hash.Hash, elems [][]byte, leafHashes [][]byte) (*PerfectTree, error) {
	n := uint64(len(leafHashes))
	width := len(leafHashes[0])
	height := uint8(Log2Uint64(n))

	data := make([]byte, 0, nodeCountForHeight(height)*uint64(width))
	var stack [][]byte

	for i := uint64(0); i < n; i++ {
		data = append(data, leafHashes[i]...)
		stack = append(stack, leafHashes[i])
		for r := TrailingOnes(i); r > 0; r-- {
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			parent := HashNode(hasher, left, right)
			data = append(data, parent...)
			stack = append(stack, parent)
		}
	}
	if len(stack) != 1 {
		// unreachable for power of two input
		return nil, ErrNotPowerOfTwo
	}
	return &PerfectTree{height: height, width: width, data: data, elems: elems}, nil
}

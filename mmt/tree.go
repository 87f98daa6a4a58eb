package mmt

import (
	"bytes"
	"errors"
	"fmt"
	"math/bits"
)

var (
	ErrMalformedTree  = errors.New("tree data is malformed")
	ErrUnsortedLeaves = errors.New("leaf elements are not in sorted order")
	ErrLeafIndexRange = errors.New("leaf index out of range")
)

// PerfectTree is an immutable complete binary merkle tree over exactly 2^k
// weakly sorted leaves. The node digests are held as a single flat slice in
// post order (see the package doc), which is also the serialized body layout,
// and the canonical element encodings are kept in a parallel slice so that
// element order queries do not touch the digests.
type PerfectTree struct {
	height uint8
	width  int
	data   []byte
	elems  [][]byte
}

// FromParts reassembles a tree from a post order digest sequence and its leaf
// elements, as produced by Build or decoded from storage. The element slice
// is retained, not copied. Leaf hashes are not recomputed here; callers that
// need cryptographic assurance use CheckIntegrity.
func FromParts(height uint8, width int, data []byte, elems [][]byte) (*PerfectTree, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: digest width %d", ErrMalformedTree, width)
	}
	nodes := nodeCountForHeight(height)
	if uint64(len(data)) != nodes*uint64(width) {
		return nil, fmt.Errorf(
			"%w: %d data bytes, want %d nodes of width %d", ErrMalformedTree, len(data), nodes, width)
	}
	if uint64(len(elems)) != leafCountForHeight(height) {
		return nil, fmt.Errorf(
			"%w: %d elements for height %d", ErrMalformedTree, len(elems), height)
	}
	for i := 1; i < len(elems); i++ {
		if bytes.Compare(elems[i-1], elems[i]) > 0 {
			return nil, ErrUnsortedLeaves
		}
	}
	return &PerfectTree{height: height, width: width, data: data, elems: elems}, nil
}

// Height returns k for a tree of 2^k leaves. A stub has height 0.
func (t *PerfectTree) Height() uint8 { return t.height }

// LeafCount returns 2^k.
func (t *PerfectTree) LeafCount() uint64 { return leafCountForHeight(t.height) }

// NodeCount returns 2^(k+1) - 1, the number of digests in the flat layout.
func (t *PerfectTree) NodeCount() uint64 { return nodeCountForHeight(t.height) }

// DigestWidth returns the width in bytes of every digest in the tree.
func (t *PerfectTree) DigestWidth() int { return t.width }

// Root returns the tree root, the last digest in post order. For a stub this
// is the leaf hash itself.
func (t *PerfectTree) Root() []byte { return t.nodeAt(t.NodeCount() - 1) }

// Data returns the flat post order digest sequence. Callers must not modify
// the returned slice.
func (t *PerfectTree) Data() []byte { return t.data }

// Element returns the canonical encoding of leaf i.
func (t *PerfectTree) Element(i uint64) []byte { return t.elems[i] }

// MinElement returns the leftmost (smallest) leaf element.
func (t *PerfectTree) MinElement() []byte { return t.elems[0] }

// MaxElement returns the rightmost (largest) leaf element.
func (t *PerfectTree) MaxElement() []byte { return t.elems[len(t.elems)-1] }

// LeafHash returns the digest of leaf i.
//
// In post order, leaf i is preceded by i leaves and by one interior digest
// per subtree completed to its left, of which there are i - popcount(i).
func (t *PerfectTree) LeafHash(i uint64) []byte {
	return t.nodeAt(2*i - uint64(bits.OnesCount64(i)))
}

// Leaves iterates the leaves in element order, calling fn with the leaf
// ordinal, element encoding and leaf digest. Iteration stops early if fn
// returns false.
func (t *PerfectTree) Leaves(fn func(i uint64, elem []byte, leafHash []byte) bool) {
	for i := uint64(0); i < t.LeafCount(); i++ {
		if !fn(i, t.elems[i], t.LeafHash(i)) {
			return
		}
	}
}

// nodeAt returns the digest at post order index i. No range checks, in the
// manner of the low level navigation primitives: out of range is a bug.
func (t *PerfectTree) nodeAt(i uint64) []byte {
	return t.data[i*uint64(t.width) : (i+1)*uint64(t.width)]
}

func leafCountForHeight(height uint8) uint64 { return uint64(1) << height }

func nodeCountForHeight(height uint8) uint64 { return (uint64(1) << (height + 1)) - 1 }

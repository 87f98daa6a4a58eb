package mmt

import "hash"

// Domain separation prefixes. The first byte of each differs, which is what
// actually defends against cross-kind second preimages; the readable suffix
// is for debuggability of raw tree files.
var (
	prefixLeaf = []byte("LEAF:")
	prefixNode = []byte("NODE:")
	prefixRoot = []byte("ROOT:")
)

// HashLeaf returns H("LEAF:" || value) where value is the canonical encoding
// of an element.
// ** the hasher is reset **
func HashLeaf(hasher hash.Hash, value []byte) []byte {
	hasher.Reset()
	hasher.Write(prefixLeaf)
	hasher.Write(value)
	return hasher.Sum(nil)
}

// HashNode returns H("NODE:" || left || right) for a pair of child digests.
// ** the hasher is reset **
func HashNode(hasher hash.Hash, left []byte, right []byte) []byte {
	hasher.Reset()
	hasher.Write(prefixNode)
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}

// HashRoots returns H("ROOT:" || roots[0] || ... || roots[m-1]), the forest
// commitment over the subtree roots listed tallest first. The empty forest
// commits to H("ROOT:") with no roots appended.
// ** the hasher is reset **
func HashRoots(hasher hash.Hash, roots [][]byte) []byte {
	hasher.Reset()
	hasher.Write(prefixRoot)
	for _, r := range roots {
		hasher.Write(r)
	}
	return hasher.Sum(nil)
}

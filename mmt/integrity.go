package mmt

import (
	"bytes"
	"errors"
	"hash"
)

var ErrIntegrity = errors.New("tree digests do not match recomputation")

// CheckIntegrity recomputes every digest in the tree from the element
// encodings and compares against the stored body. It is linear in the tree
// size and intended for load time verification of persisted trees, where the
// digest file and the element file are separate artifacts that could drift.
func (t *PerfectTree) CheckIntegrity(hasher hash.Hash) error {
	leafHashes := make([][]byte, len(t.elems))
	for i, e := range t.elems {
		leafHashes[i] = HashLeaf(hasher, e)
	}
	rebuilt, err := buildFromLeafHashes(hasher, t.elems, leafHashes)
	if err != nil {
		return err
	}
	if !bytes.Equal(rebuilt.data, t.data) {
		return ErrIntegrity
	}
	return nil
}

package mmt

import (
	"bytes"
	"sort"
)

// LocateKind classifies the result of an element search within one tree.
type LocateKind int

const (
	// LocateFound means the element is present; Index is the leftmost
	// matching leaf.
	LocateFound LocateKind = iota
	// LocateBeforeAll means the element orders before the leftmost leaf.
	LocateBeforeAll
	// LocateAfterAll means the element orders after the rightmost leaf.
	LocateAfterAll
	// LocateGap means leaves Index and Index+1 bracket the element
	// strictly.
	LocateGap
)

// Location is the result of Locate. For LocateBeforeAll, Index is 0 (the
// successor); for LocateAfterAll it is the last leaf (the predecessor).
type Location struct {
	Kind  LocateKind
	Index uint64
}

// Locate binary searches the leaf elements for elem. Searches are over the
// element encodings, never the digests: leaves are sorted by element order
// and the digest order is unrelated.
func (t *PerfectTree) Locate(elem []byte) Location {
	n := len(t.elems)
	i := sort.Search(n, func(j int) bool {
		return bytes.Compare(t.elems[j], elem) >= 0
	})
	switch {
	case i < n && bytes.Equal(t.elems[i], elem):
		return Location{Kind: LocateFound, Index: uint64(i)}
	case i == 0:
		return Location{Kind: LocateBeforeAll, Index: 0}
	case i == n:
		return Location{Kind: LocateAfterAll, Index: uint64(n - 1)}
	default:
		return Location{Kind: LocateGap, Index: uint64(i - 1)}
	}
}

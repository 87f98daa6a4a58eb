package forest

import (
	"bytes"
	"hash"
	"slices"

	"github.com/DavidBuchanan314/merkle-merge-tree/mmt"
)

// InclusionProof witnesses that Value is a leaf of subtree SubtreeIndex.
// Path reproduces that subtree's root from LeafHash, and PeerRoots lists the
// roots of every other subtree in forest order, so the verifier can
// reassemble the forest root with the proven root slotted back in. The proof
// binds to exactly one forest root; it fails against any other.
type InclusionProof struct {
	Version    uint8
	HashAlg    string
	Value      []byte
	LeafHash   []byte
	SubtreeIdx int
	Path       []mmt.PathStep
	PeerRoots  [][]byte
	ForestRoot []byte
}

// ProveInclusion returns a proof that elem is present, or (nil, nil) when it
// is absent: not-present is an answer, not a failure. For duplicates the
// leftmost subtree and leftmost leaf are chosen, so proofs are deterministic.
func (f *Forest) ProveInclusion(elem []byte) (*InclusionProof, error) {
	for ti, tree := range f.trees {
		loc := tree.Locate(elem)
		if loc.Kind != mmt.LocateFound {
			continue
		}
		path, err := tree.InclusionPath(loc.Index)
		if err != nil {
			return nil, err
		}
		peers := make([][]byte, 0, len(f.trees)-1)
		for pi, peer := range f.trees {
			if pi != ti {
				peers = append(peers, slices.Clone(peer.Root()))
			}
		}
		return &InclusionProof{
			Version:    ProofVersion,
			HashAlg:    f.hashAlg,
			Value:      elem,
			LeafHash:   slices.Clone(tree.LeafHash(loc.Index)),
			SubtreeIdx: ti,
			Path:       path,
			PeerRoots:  peers,
			ForestRoot: f.root,
		}, nil
	}
	return nil, nil
}

// Verify checks the proof against an expected forest root, resolving the
// hash primitive from the proof's algorithm identifier. Any malformation, a
// digest of the wrong width, an unknown algorithm, a missing field, makes it
// return false rather than an error: a proof either convinces or it does
// not.
func (p *InclusionProof) Verify(expectedRoot []byte) bool {
	newHash, ok := hashAlgFactory(p.HashAlg)
	if !ok {
		return false
	}
	return p.VerifyWith(newHash, expectedRoot)
}

// VerifyWith is Verify under an explicitly supplied hash primitive, for
// forests built with custom hashes.
func (p *InclusionProof) VerifyWith(newHash func() hash.Hash, expectedRoot []byte) bool {
	if p.Version != ProofVersion {
		return false
	}
	hasher := newHash()
	width := hasher.Size()

	if len(p.LeafHash) != width || p.SubtreeIdx < 0 || p.SubtreeIdx > len(p.PeerRoots) {
		return false
	}
	for _, peer := range p.PeerRoots {
		if len(peer) != width {
			return false
		}
	}
	for _, step := range p.Path {
		if len(step.Sibling) != width {
			return false
		}
	}

	if !bytes.Equal(mmt.HashLeaf(hasher, p.Value), p.LeafHash) {
		return false
	}

	subtreeRoot := mmt.PathRoot(hasher, p.LeafHash, p.Path)

	roots := make([][]byte, 0, len(p.PeerRoots)+1)
	roots = append(roots, p.PeerRoots[:p.SubtreeIdx]...)
	roots = append(roots, subtreeRoot)
	roots = append(roots, p.PeerRoots[p.SubtreeIdx:]...)

	return bytes.Equal(mmt.HashRoots(hasher, roots), expectedRoot)
}

package forest

import (
	"bytes"
	"hash"

	"github.com/DavidBuchanan314/merkle-merge-tree/mmt"
)

// WitnessKind classifies a per-subtree exclusion witness.
type WitnessKind uint8

const (
	// WitnessEmpty attests the whole forest is empty. It only ever appears
	// alone.
	WitnessEmpty WitnessKind = iota
	// WitnessBeforeAll proves the target orders before the subtree's
	// leftmost leaf, by an inclusion path for that leaf at index 0.
	WitnessBeforeAll
	// WitnessAfterAll proves the target orders after the subtree's
	// rightmost leaf.
	WitnessAfterAll
	// WitnessBetween proves two adjacent leaves strictly bracket the
	// target. Adjacency is the load bearing fact: it is recomputed from
	// the two paths' side bits, never taken from the proof.
	WitnessBetween
)

// SubtreeExclusion is one subtree's witness of absence. Which fields are
// populated depends on Kind.
type SubtreeExclusion struct {
	Kind            WitnessKind
	Predecessor     []byte
	PredecessorPath []mmt.PathStep
	Successor       []byte
	SuccessorPath   []mmt.PathStep
}

// ExclusionProof witnesses that Target is absent from every subtree.
// Subtrees share no global order, so absence cannot be shown with one gap;
// the proof carries one witness per subtree, in forest order, and the
// verifier reassembles the forest root from the roots those witnesses
// reproduce. Size is O(log^2 n): log n subtrees, each witness log n deep.
type ExclusionProof struct {
	Version    uint8
	HashAlg    string
	Target     []byte
	Witnesses  []SubtreeExclusion
	ForestRoot []byte
}

// ProveExclusion returns a proof that elem is absent, or (nil, nil) when it
// is present, the mirror image of ProveInclusion's sentinel.
func (f *Forest) ProveExclusion(elem []byte) (*ExclusionProof, error) {
	if len(f.trees) == 0 {
		return &ExclusionProof{
			Version:    ProofVersion,
			HashAlg:    f.hashAlg,
			Target:     elem,
			Witnesses:  []SubtreeExclusion{{Kind: WitnessEmpty}},
			ForestRoot: f.root,
		}, nil
	}

	witnesses := make([]SubtreeExclusion, 0, len(f.trees))
	for _, tree := range f.trees {
		loc := tree.Locate(elem)
		if loc.Kind == mmt.LocateFound {
			return nil, nil
		}
		w, err := excludeFromTree(tree, loc)
		if err != nil {
			return nil, err
		}
		witnesses = append(witnesses, w)
	}

	return &ExclusionProof{
		Version:    ProofVersion,
		HashAlg:    f.hashAlg,
		Target:     elem,
		Witnesses:  witnesses,
		ForestRoot: f.root,
	}, nil
}

func excludeFromTree(tree *mmt.PerfectTree, loc mmt.Location) (SubtreeExclusion, error) {
	switch loc.Kind {
	case mmt.LocateBeforeAll:
		path, err := tree.InclusionPath(0)
		if err != nil {
			return SubtreeExclusion{}, err
		}
		return SubtreeExclusion{
			Kind:          WitnessBeforeAll,
			Successor:     tree.Element(0),
			SuccessorPath: path,
		}, nil

	case mmt.LocateAfterAll:
		last := tree.LeafCount() - 1
		path, err := tree.InclusionPath(last)
		if err != nil {
			return SubtreeExclusion{}, err
		}
		return SubtreeExclusion{
			Kind:            WitnessAfterAll,
			Predecessor:     tree.Element(last),
			PredecessorPath: path,
		}, nil

	default: // mmt.LocateGap
		predPath, err := tree.InclusionPath(loc.Index)
		if err != nil {
			return SubtreeExclusion{}, err
		}
		succPath, err := tree.InclusionPath(loc.Index + 1)
		if err != nil {
			return SubtreeExclusion{}, err
		}
		return SubtreeExclusion{
			Kind:            WitnessBetween,
			Predecessor:     tree.Element(loc.Index),
			PredecessorPath: predPath,
			Successor:       tree.Element(loc.Index + 1),
			SuccessorPath:   succPath,
		}, nil
	}
}

// Verify checks the proof against an expected forest root. See
// InclusionProof.Verify for the failure policy: every defect surfaces as
// false.
func (p *ExclusionProof) Verify(expectedRoot []byte) bool {
	newHash, ok := hashAlgFactory(p.HashAlg)
	if !ok {
		return false
	}
	return p.VerifyWith(newHash, expectedRoot)
}

// VerifyWith is Verify under an explicitly supplied hash primitive.
func (p *ExclusionProof) VerifyWith(newHash func() hash.Hash, expectedRoot []byte) bool {
	if p.Version != ProofVersion {
		return false
	}
	hasher := newHash()

	if len(p.Witnesses) == 1 && p.Witnesses[0].Kind == WitnessEmpty {
		return bytes.Equal(mmt.HashRoots(hasher, nil), expectedRoot)
	}

	roots := make([][]byte, 0, len(p.Witnesses))
	for _, w := range p.Witnesses {
		root, ok := subtreeRootFromWitness(hasher, p.Target, w)
		if !ok {
			return false
		}
		roots = append(roots, root)
	}
	return bytes.Equal(mmt.HashRoots(hasher, roots), expectedRoot)
}

// subtreeRootFromWitness recomputes one subtree root from a witness,
// checking the ordering predicate and the positional facts that make it
// sound: a BeforeAll successor must sit at leaf 0, an AfterAll predecessor
// at the last leaf, and a Between pair at consecutive indices derived from
// the side bits of their paths.
func subtreeRootFromWitness(hasher hash.Hash, target []byte, w SubtreeExclusion) ([]byte, bool) {
	width := hasher.Size()
	wellFormed := func(path []mmt.PathStep) bool {
		for _, step := range path {
			if len(step.Sibling) != width {
				return false
			}
		}
		return true
	}

	switch w.Kind {
	case WitnessBeforeAll:
		if w.Successor == nil || !wellFormed(w.SuccessorPath) {
			return nil, false
		}
		if bytes.Compare(target, w.Successor) >= 0 {
			return nil, false
		}
		if mmt.LeafIndexFromPath(w.SuccessorPath) != 0 {
			return nil, false
		}
		return mmt.PathRoot(hasher, mmt.HashLeaf(hasher, w.Successor), w.SuccessorPath), true

	case WitnessAfterAll:
		if w.Predecessor == nil || !wellFormed(w.PredecessorPath) {
			return nil, false
		}
		if bytes.Compare(w.Predecessor, target) >= 0 {
			return nil, false
		}
		last := (uint64(1) << len(w.PredecessorPath)) - 1
		if mmt.LeafIndexFromPath(w.PredecessorPath) != last {
			return nil, false
		}
		return mmt.PathRoot(hasher, mmt.HashLeaf(hasher, w.Predecessor), w.PredecessorPath), true

	case WitnessBetween:
		if w.Predecessor == nil || w.Successor == nil {
			return nil, false
		}
		if !wellFormed(w.PredecessorPath) || !wellFormed(w.SuccessorPath) {
			return nil, false
		}
		if bytes.Compare(w.Predecessor, target) >= 0 || bytes.Compare(target, w.Successor) >= 0 {
			return nil, false
		}
		if len(w.PredecessorPath) != len(w.SuccessorPath) {
			return nil, false
		}
		predIdx := mmt.LeafIndexFromPath(w.PredecessorPath)
		succIdx := mmt.LeafIndexFromPath(w.SuccessorPath)
		if succIdx != predIdx+1 {
			return nil, false
		}
		predRoot := mmt.PathRoot(hasher, mmt.HashLeaf(hasher, w.Predecessor), w.PredecessorPath)
		succRoot := mmt.PathRoot(hasher, mmt.HashLeaf(hasher, w.Successor), w.SuccessorPath)
		if !bytes.Equal(predRoot, succRoot) {
			return nil, false
		}
		return predRoot, true

	default:
		// WitnessEmpty is only valid alone, handled by the caller
		return nil, false
	}
}

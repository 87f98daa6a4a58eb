package forest

import (
	"crypto/sha256"
	"errors"
	"hash"

	"github.com/DavidBuchanan314/merkle-merge-tree/mmt"
)

var (
	ErrNonCanonicalOrder = errors.New("subtree heights are not strictly decreasing")
)

// Forest is an authenticated insert-only multiset. The zero value is not
// usable; construct with New or FromTrees.
//
// A Forest value is immutable. Mutating operations return a new Forest that
// shares subtrees with the receiver, so retained references stay valid and
// verifiable against their old root.
type Forest struct {
	newHash     func() hash.Hash
	hashAlg     string
	trees       []*mmt.PerfectTree
	cardinality uint64
	root        []byte
}

// Option configures a Forest under construction.
type Option func(*Forest)

// WithHash selects the hash primitive, identified on the wire by alg. The
// default is SHA-256 as "sha-256". Proofs generated under an alg that is
// not registered here can only be checked with VerifyWith.
func WithHash(alg string, newHash func() hash.Hash) Option {
	return func(f *Forest) {
		f.hashAlg = alg
		f.newHash = newHash
	}
}

// New returns an empty forest. Its root is the fixed sentinel H("ROOT:").
func New(opts ...Option) *Forest {
	f := &Forest{newHash: sha256.New, hashAlg: HashAlgSHA256}
	for _, opt := range opts {
		opt(f)
	}
	f.root = mmt.HashRoots(f.newHash(), nil)
	return f
}

// FromTrees assembles a forest from subtrees already in canonical order,
// tallest first with strictly decreasing heights. This is the loading path
// used by the store; it does not re-verify tree contents.
func FromTrees(trees []*mmt.PerfectTree, opts ...Option) (*Forest, error) {
	f := &Forest{newHash: sha256.New, hashAlg: HashAlgSHA256}
	for _, opt := range opts {
		opt(f)
	}
	for i, t := range trees {
		if i > 0 && trees[i-1].Height() <= t.Height() {
			return nil, ErrNonCanonicalOrder
		}
		f.cardinality += t.LeafCount()
	}
	f.trees = trees
	f.root = f.computeRoot()
	return f, nil
}

// Root returns the forest root, the sole public commitment to the multiset.
func (f *Forest) Root() []byte { return f.root }

// Cardinality returns the number of elements inserted, counting duplicates.
func (f *Forest) Cardinality() uint64 { return f.cardinality }

// Trees returns the subtrees tallest first. The slice and the trees are
// shared; callers must not modify them.
func (f *Forest) Trees() []*mmt.PerfectTree { return f.trees }

// Heights returns the subtree heights tallest first. After n inserts these
// are exactly the set bit positions of n.
func (f *Forest) Heights() []uint8 {
	heights := make([]uint8, len(f.trees))
	for i, t := range f.trees {
		heights[i] = t.Height()
	}
	return heights
}

// Insert adds an element, given by its canonical encoding, and returns the
// new forest. Duplicates are permitted; nothing is ever rejected for being
// present already, that is what makes insert O(log n) rather than requiring
// a membership probe.
func (f *Forest) Insert(elem []byte) (*Forest, error) {
	hasher := f.newHash()

	trees := make([]*mmt.PerfectTree, len(f.trees), len(f.trees)+1)
	copy(trees, f.trees)
	trees = append(trees, mmt.NewStub(hasher, elem))

	// binary counter carry: fuse the two rightmost while heights agree
	for len(trees) >= 2 && trees[len(trees)-1].Height() == trees[len(trees)-2].Height() {
		merged, err := mmt.Merge(hasher, trees[len(trees)-2], trees[len(trees)-1])
		if err != nil {
			return nil, err
		}
		trees = append(trees[:len(trees)-2], merged)
	}

	nf := &Forest{newHash: f.newHash, hashAlg: f.hashAlg, trees: trees, cardinality: f.cardinality + 1}
	nf.root = nf.computeRoot()
	return nf, nil
}

// Contains reports whether the element is present in any subtree.
func (f *Forest) Contains(elem []byte) bool {
	for _, t := range f.trees {
		if t.Locate(elem).Kind == mmt.LocateFound {
			return true
		}
	}
	return false
}

// Locations returns the per-subtree locate results for elem, tallest
// subtree first. These are the same per-subtree results the provers compute
// with Locate.
func (f *Forest) Locations(elem []byte) []mmt.Location {
	locs := make([]mmt.Location, len(f.trees))
	for i, t := range f.trees {
		locs[i] = t.Locate(elem)
	}
	return locs
}

func (f *Forest) computeRoot() []byte {
	roots := make([][]byte, len(f.trees))
	for i, t := range f.trees {
		roots[i] = t.Root()
	}
	return mmt.HashRoots(f.newHash(), roots)
}

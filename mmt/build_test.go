package mmt

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elemsFromStrings(ss ...string) [][]byte {
	elems := make([][]byte, len(ss))
	for i, s := range ss {
		elems[i] = []byte(s)
	}
	return elems
}

func TestTrailingOnes(t *testing.T) {
	tests := []struct {
		num  uint64
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 0},
		{3, 2},
		{4, 0},
		{7, 3},
		{11, 2},
		{0xffff, 16},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("trailing ones of %d", tt.num), func(t *testing.T) {
			assert.Equal(t, tt.want, TrailingOnes(tt.num))
		})
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	h := sha256.New()

	_, err := Build(h, elemsFromStrings("a", "b", "c"))
	assert.ErrorIs(t, err, ErrNotPowerOfTwo)

	_, err = Build(h, elemsFromStrings("b", "a"))
	assert.ErrorIs(t, err, ErrUnsortedLeaves)

	_, err = Build(h, nil)
	assert.ErrorIs(t, err, ErrNotPowerOfTwo)
}

func TestBuildPostOrderLayout(t *testing.T) {
	// Reproduce the height 3 worked example: the body must be the post
	// order 1 2 a 3 4 c b 5 6 e 7 8 g f d, with the root last.
	h := sha256.New()
	elems := elemsFromStrings("1", "2", "3", "4", "5", "6", "7", "8")
	tree, err := Build(h, elems)
	require.NoError(t, err)

	require.Equal(t, uint8(3), tree.Height())
	require.Equal(t, uint64(8), tree.LeafCount())
	require.Equal(t, uint64(15), tree.NodeCount())

	l := func(i int) []byte { return HashLeaf(h, elems[i]) }
	n := func(a, b []byte) []byte { return HashNode(h, a, b) }

	a := n(l(0), l(1))
	c := n(l(2), l(3))
	b := n(a, c)
	e := n(l(4), l(5))
	g := n(l(6), l(7))
	f := n(e, g)
	d := n(b, f)

	want := [][]byte{l(0), l(1), a, l(2), l(3), c, b, l(4), l(5), e, l(6), l(7), g, f, d}
	for i, w := range want {
		assert.Equal(t, w, tree.nodeAt(uint64(i)), "post order index %d", i)
	}
	assert.Equal(t, d, tree.Root())
}

func TestLeafHashOffsets(t *testing.T) {
	h := sha256.New()
	elems := elemsFromStrings("1", "2", "3", "4", "5", "6", "7", "8")
	tree, err := Build(h, elems)
	require.NoError(t, err)

	for i := uint64(0); i < tree.LeafCount(); i++ {
		assert.Equal(t, HashLeaf(h, elems[i]), tree.LeafHash(i), "leaf %d", i)
	}
}

func TestStubRootIsLeafHash(t *testing.T) {
	h := sha256.New()
	stub := NewStub(h, []byte("only"))
	assert.Equal(t, uint8(0), stub.Height())
	assert.Equal(t, uint64(1), stub.LeafCount())
	assert.Equal(t, HashLeaf(h, []byte("only")), stub.Root())
}

func TestLeavesIteratorIsRestartable(t *testing.T) {
	h := sha256.New()
	tree, err := Build(h, elemsFromStrings("a", "b", "c", "d"))
	require.NoError(t, err)

	for pass := 0; pass < 2; pass++ {
		var got []string
		tree.Leaves(func(i uint64, elem []byte, leafHash []byte) bool {
			assert.Equal(t, HashLeaf(h, elem), leafHash)
			got = append(got, string(elem))
			return true
		})
		assert.Equal(t, []string{"a", "b", "c", "d"}, got)
	}
}

func TestFromPartsRoundTrip(t *testing.T) {
	h := sha256.New()
	tree, err := Build(h, elemsFromStrings("p", "q", "r", "s"))
	require.NoError(t, err)

	again, err := FromParts(tree.Height(), tree.DigestWidth(), tree.Data(), [][]byte{
		[]byte("p"), []byte("q"), []byte("r"), []byte("s"),
	})
	require.NoError(t, err)
	assert.Equal(t, tree.Root(), again.Root())
	assert.NoError(t, again.CheckIntegrity(h))
}

func TestFromPartsRejectsBadShapes(t *testing.T) {
	h := sha256.New()
	tree, err := Build(h, elemsFromStrings("p", "q"))
	require.NoError(t, err)

	_, err = FromParts(2, tree.DigestWidth(), tree.Data(), tree.elems)
	assert.ErrorIs(t, err, ErrMalformedTree)

	_, err = FromParts(1, tree.DigestWidth(), tree.Data()[:32], tree.elems)
	assert.ErrorIs(t, err, ErrMalformedTree)

	_, err = FromParts(1, tree.DigestWidth(), tree.Data(), elemsFromStrings("q", "p"))
	assert.ErrorIs(t, err, ErrUnsortedLeaves)
}

func TestCheckIntegrityDetectsTamper(t *testing.T) {
	h := sha256.New()
	tree, err := Build(h, elemsFromStrings("1", "2", "3", "4"))
	require.NoError(t, err)
	require.NoError(t, tree.CheckIntegrity(h))

	tree.data[5] ^= 0x01
	assert.ErrorIs(t, tree.CheckIntegrity(h), ErrIntegrity)
}

package mmt

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInclusionPathAllLeaves(t *testing.T) {
	h := sha256.New()
	for _, k := range []uint8{0, 1, 2, 3, 4} {
		n := 1 << k
		elems := make([][]byte, n)
		for i := range elems {
			elems[i] = []byte(fmt.Sprintf("leaf-%03d", i))
		}
		tree, err := Build(h, elems)
		require.NoError(t, err)

		for i := uint64(0); i < tree.LeafCount(); i++ {
			path, err := tree.InclusionPath(i)
			require.NoError(t, err)
			assert.Len(t, path, int(k))
			assert.True(t, VerifyPath(h, tree.LeafHash(i), path, tree.Root()),
				"height %d leaf %d", k, i)
			assert.Equal(t, i, LeafIndexFromPath(path))
		}
	}
}

func TestInclusionPathRange(t *testing.T) {
	h := sha256.New()
	tree, err := Build(h, elemsFromStrings("a", "b"))
	require.NoError(t, err)
	_, err = tree.InclusionPath(2)
	assert.ErrorIs(t, err, ErrLeafIndexRange)
}

func TestVerifyPathRejectsWrongLeaf(t *testing.T) {
	h := sha256.New()
	tree, err := Build(h, elemsFromStrings("a", "b", "c", "d"))
	require.NoError(t, err)

	path, err := tree.InclusionPath(1)
	require.NoError(t, err)

	assert.False(t, VerifyPath(h, tree.LeafHash(2), path, tree.Root()))
	assert.False(t, VerifyPath(h, tree.LeafHash(1), path, tree.LeafHash(0)))
}

func TestVerifyPathRejectsTamperedSibling(t *testing.T) {
	h := sha256.New()
	tree, err := Build(h, elemsFromStrings("a", "b", "c", "d"))
	require.NoError(t, err)

	path, err := tree.InclusionPath(0)
	require.NoError(t, err)
	require.True(t, VerifyPath(h, tree.LeafHash(0), path, tree.Root()))

	path[1].Sibling[0] ^= 0x80
	assert.False(t, VerifyPath(h, tree.LeafHash(0), path, tree.Root()))
}

func TestVerifyPathRejectsFlippedSide(t *testing.T) {
	h := sha256.New()
	tree, err := Build(h, elemsFromStrings("a", "b", "c", "d"))
	require.NoError(t, err)

	path, err := tree.InclusionPath(1)
	require.NoError(t, err)
	path[0].Left = !path[0].Left
	assert.False(t, VerifyPath(h, tree.LeafHash(1), path, tree.Root()))
}

func TestStubPathIsEmpty(t *testing.T) {
	h := sha256.New()
	stub := NewStub(h, []byte("x"))
	path, err := stub.InclusionPath(0)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.True(t, VerifyPath(h, stub.LeafHash(0), path, stub.Root()))
}

func TestLocate(t *testing.T) {
	h := sha256.New()
	tree, err := Build(h, elemsFromStrings("10", "25", "40", "55"))
	require.NoError(t, err)

	tests := []struct {
		name string
		elem string
		want Location
	}{
		{"present leftmost", "10", Location{LocateFound, 0}},
		{"present interior", "40", Location{LocateFound, 2}},
		{"before all", "0", Location{LocateBeforeAll, 0}},
		{"after all", "99", Location{LocateAfterAll, 3}},
		{"gap between 25 and 40", "30", Location{LocateGap, 1}},
		{"gap between 40 and 55", "50", Location{LocateGap, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tree.Locate([]byte(tt.elem)))
		})
	}
}

func TestLocateDuplicatesLeftmost(t *testing.T) {
	h := sha256.New()
	tree, err := Build(h, elemsFromStrings("a", "b", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, Location{LocateFound, 1}, tree.Locate([]byte("b")))
}

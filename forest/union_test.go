package forest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeWithEmpties(t *testing.T) {
	a, b := New(), New()
	u, err := a.MergeWith(b)
	require.NoError(t, err)
	assert.Equal(t, a.Root(), u.Root())
	assert.Equal(t, uint64(0), u.Cardinality())
}

func TestMergeWithEmptyIsIdentity(t *testing.T) {
	f := insertAll(t, New(), "a", "b", "c")

	u, err := f.MergeWith(New())
	require.NoError(t, err)
	assert.Equal(t, f.Root(), u.Root())

	u, err = New().MergeWith(f)
	require.NoError(t, err)
	assert.Equal(t, f.Root(), u.Root())
}

func TestMergeWithUnion(t *testing.T) {
	a := insertAll(t, New(), "10", "30", "50")
	b := insertAll(t, New(), "20", "40", "60")

	u, err := a.MergeWith(b)
	require.NoError(t, err)

	assert.Equal(t, uint64(6), u.Cardinality())
	// 6 = 0b110
	assert.Equal(t, []uint8{2, 1}, u.Heights())

	for _, e := range []string{"10", "20", "30", "40", "50", "60"} {
		assert.True(t, u.Contains([]byte(e)), e)
	}

	p, err := u.ProveExclusion([]byte("35"))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Verify(u.Root()))

	ip, err := u.ProveInclusion([]byte("30"))
	require.NoError(t, err)
	require.NotNil(t, ip)
	assert.True(t, ip.Verify(u.Root()))
}

func TestMergeWithCanonicalShape(t *testing.T) {
	// cardinalities 5 + 7 = 12 = 0b1100
	a := insertAll(t, New(), "a1", "a2", "a3", "a4", "a5")
	b := insertAll(t, New(), "b1", "b2", "b3", "b4", "b5", "b6", "b7")

	u, err := a.MergeWith(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), u.Cardinality())
	assert.Equal(t, []uint8{3, 2}, u.Heights())
}

func TestMergeWithSingletonsIsOrderIndependent(t *testing.T) {
	// two singleton forests over the same elements produce the same root
	// regardless of which side they are merged from: the sorted merger
	// normalizes the pair
	x := insertAll(t, New(), "x")
	y := insertAll(t, New(), "y")

	xy, err := x.MergeWith(y)
	require.NoError(t, err)
	yx, err := y.MergeWith(x)
	require.NoError(t, err)
	assert.Equal(t, xy.Root(), yx.Root())
}

func TestSequentialInsertOrderDoesAffectRoot(t *testing.T) {
	// subtree contents depend on insertion epoch, so plain sequential
	// inserts of a permuted multiset commit to a different root. This
	// asymmetry is intended, not a defect.
	a := insertAll(t, New(), "1", "2", "3", "4", "5", "6")
	b := insertAll(t, New(), "6", "5", "4", "3", "2", "1")
	assert.NotEqual(t, a.Root(), b.Root())
}

func TestMergeWithKeepsDuplicates(t *testing.T) {
	a := insertAll(t, New(), "k", "k")
	b := insertAll(t, New(), "k")

	u, err := a.MergeWith(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.Cardinality())
}

func TestMergeWithLarger(t *testing.T) {
	a, b := New(), New()
	var err error
	for i := 0; i < 21; i++ {
		a, err = a.Insert([]byte(fmt.Sprintf("a%02d", i)))
		require.NoError(t, err)
	}
	for i := 0; i < 11; i++ {
		b, err = b.Insert([]byte(fmt.Sprintf("b%02d", i)))
		require.NoError(t, err)
	}

	u, err := a.MergeWith(b)
	require.NoError(t, err)
	// 32 = 0b100000
	assert.Equal(t, uint64(32), u.Cardinality())
	assert.Equal(t, []uint8{5}, u.Heights())

	for i := 0; i < 21; i++ {
		assert.True(t, u.Contains([]byte(fmt.Sprintf("a%02d", i))))
	}
	for i := 0; i < 11; i++ {
		assert.True(t, u.Contains([]byte(fmt.Sprintf("b%02d", i))))
	}

	p, err := u.ProveExclusion([]byte("c"))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Verify(u.Root()))
}

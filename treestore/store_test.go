package treestore

import (
	"encoding/hex"
	"io"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidBuchanan314/merkle-merge-tree/forest"
)

func testForest(t *testing.T, elems ...string) *forest.Forest {
	t.Helper()
	f := forest.New()
	var err error
	for _, e := range elems {
		f, err = f.Insert([]byte(e))
		require.NoError(t, err)
	}
	return f
}

func flipByte(t *testing.T, fs billy.Filesystem, path string, offset int64) {
	t.Helper()
	file, err := fs.Open(path)
	require.NoError(t, err)
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	data[offset] ^= 0x01

	out, err := fs.Create(path)
	require.NoError(t, err)
	_, err = out.Write(data)
	require.NoError(t, err)
	require.NoError(t, out.Close())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := memfs.New()
	s, err := NewStore(fs)
	require.NoError(t, err)

	f := testForest(t, "10", "25", "40", "55", "70", "85")
	require.NoError(t, s.SaveForest(f))

	s2, err := NewStore(fs) // fresh store, cold cache
	require.NoError(t, err)
	loaded, err := s2.LoadForest()
	require.NoError(t, err)

	assert.Equal(t, f.Root(), loaded.Root())
	assert.Equal(t, f.Cardinality(), loaded.Cardinality())
	assert.Equal(t, f.Heights(), loaded.Heights())

	// a proof from the loaded forest verifies against the original root
	p, err := loaded.ProveExclusion([]byte("50"))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Verify(f.Root()))
}

func TestSaveEmptyForest(t *testing.T) {
	fs := memfs.New()
	s, err := NewStore(fs)
	require.NoError(t, err)

	f := forest.New()
	require.NoError(t, s.SaveForest(f))

	loaded, err := s.LoadForest()
	require.NoError(t, err)
	assert.Equal(t, f.Root(), loaded.Root())
	assert.Equal(t, uint64(0), loaded.Cardinality())
}

func TestLoadWithoutManifest(t *testing.T) {
	s, err := NewStore(memfs.New())
	require.NoError(t, err)
	_, err = s.LoadForest()
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestGetTreeMissing(t *testing.T) {
	s, err := NewStore(memfs.New())
	require.NoError(t, err)
	_, err = s.GetTree("00ff")
	assert.ErrorIs(t, err, ErrTreeNotFound)
}

func TestSuccessiveSavesShareTreeFiles(t *testing.T) {
	fs := memfs.New()
	s, err := NewStore(fs)
	require.NoError(t, err)

	f := testForest(t, "a", "b", "c", "d")
	require.NoError(t, s.SaveForest(f))

	before, err := fs.ReadDir(treesDir)
	require.NoError(t, err)

	// one more insert keeps the height-2 tree and adds a stub
	f2, err := f.Insert([]byte("e"))
	require.NoError(t, err)
	require.NoError(t, s.SaveForest(f2))

	after, err := fs.ReadDir(treesDir)
	require.NoError(t, err)
	// the shared tree was not rewritten, only the stub's two files appeared
	assert.Equal(t, len(before)+2, len(after))
}

func TestSweepRemovesUnreferenced(t *testing.T) {
	fs := memfs.New()
	s, err := NewStore(fs)
	require.NoError(t, err)

	f := testForest(t, "a", "b", "c")
	require.NoError(t, s.SaveForest(f))

	// advancing from 3 to 4 elements collapses both old trees into one
	f2, err := f.Insert([]byte("d"))
	require.NoError(t, err)
	require.NoError(t, s.SaveForest(f2))

	removed, err := s.Sweep()
	require.NoError(t, err)
	// the height-1 tree and the stub are both dead: two files each
	assert.Equal(t, 4, removed)

	// the committed forest still loads
	loaded, err := s.LoadForest()
	require.NoError(t, err)
	assert.Equal(t, f2.Root(), loaded.Root())
}

func TestTamperedTreeFileFailsLoad(t *testing.T) {
	fs := memfs.New()
	s, err := NewStore(fs)
	require.NoError(t, err)

	f := testForest(t, "1", "2", "3", "4")
	require.NoError(t, s.SaveForest(f))
	require.Len(t, f.Trees(), 1)
	rootHex := hex.EncodeToString(f.Trees()[0].Root())

	// flip a bit inside the first leaf digest
	flipByte(t, fs, treePath(rootHex), treeHeaderSize)

	s2, err := NewStore(fs)
	require.NoError(t, err)
	_, err = s2.LoadForest()
	assert.Error(t, err)
}

func TestTamperedRootDigestFailsAddressCheck(t *testing.T) {
	fs := memfs.New()
	s, err := NewStore(fs)
	require.NoError(t, err)

	f := testForest(t, "1", "2", "3", "4")
	require.NoError(t, s.SaveForest(f))
	rootHex := hex.EncodeToString(f.Trees()[0].Root())

	// the root is the final digest in the body
	info, err := fs.Stat(treePath(rootHex))
	require.NoError(t, err)
	flipByte(t, fs, treePath(rootHex), info.Size()-1)

	s2, err := NewStore(fs, WithoutVerifyOnLoad())
	require.NoError(t, err)
	_, err = s2.GetTree(rootHex)
	assert.ErrorIs(t, err, ErrRootMismatch)
}

func TestTamperedElementFileFailsLoad(t *testing.T) {
	fs := memfs.New()
	s, err := NewStore(fs)
	require.NoError(t, err)

	f := testForest(t, "1", "2", "3", "4")
	require.NoError(t, s.SaveForest(f))
	rootHex := hex.EncodeToString(f.Trees()[0].Root())

	// flip a byte of the first element encoding, past header and prefix
	flipByte(t, fs, elemPath(rootHex), treeHeaderSize+1)

	s2, err := NewStore(fs)
	require.NoError(t, err)
	_, err = s2.GetTree(rootHex)
	assert.Error(t, err)
}

func TestManifestRootMismatch(t *testing.T) {
	fs := memfs.New()
	s, err := NewStore(fs)
	require.NoError(t, err)

	f := testForest(t, "a", "b")
	require.NoError(t, s.SaveForest(f))

	m, err := s.ReadManifest()
	require.NoError(t, err)
	m.Root[0] ^= 0x01

	enc, err := s.codec.enc.Marshal(&m)
	require.NoError(t, err)
	require.NoError(t, s.writeFile(manifestName, func(w io.Writer) error {
		_, werr := w.Write(enc)
		return werr
	}))

	s2, err := NewStore(fs)
	require.NoError(t, err)
	_, err = s2.LoadForest()
	assert.ErrorIs(t, err, ErrManifestRoot)
}

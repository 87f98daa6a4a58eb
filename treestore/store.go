package treestore

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/DavidBuchanan314/merkle-merge-tree/forest"
	"github.com/DavidBuchanan314/merkle-merge-tree/mmt"
)

const (
	treesDir     = "trees"
	manifestName = "MANIFEST.cbor"

	treeExt = ".mmt"
	elemExt = ".elem"

	defaultCacheSize = 128
)

// Store persists forests on a billy filesystem: osfs in production, memfs in
// tests. Tree files are content addressed by root and written exactly once;
// only the manifest ever changes, and it changes by rename.
type Store struct {
	fs           billy.Filesystem
	log          *zap.Logger
	cache        *lru.Cache[string, *mmt.PerfectTree]
	newHash      func() hash.Hash
	verifyOnLoad bool
	codec        cborCodec
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger attaches a logger. The default discards.
func WithLogger(log *zap.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

// WithCacheSize sets the decoded tree cache capacity.
func WithCacheSize(n int) StoreOption {
	return func(s *Store) {
		if c, err := lru.New[string, *mmt.PerfectTree](n); err == nil {
			s.cache = c
		}
	}
}

// WithStoreHash selects the hash primitive used for load time verification.
// Must match the forest's.
func WithStoreHash(newHash func() hash.Hash) StoreOption {
	return func(s *Store) { s.newHash = newHash }
}

// WithoutVerifyOnLoad skips recomputing tree digests when loading. Loads
// become O(size read) instead of O(size hashed), at the price of trusting
// the storage medium.
func WithoutVerifyOnLoad() StoreOption {
	return func(s *Store) { s.verifyOnLoad = false }
}

// NewStore returns a store rooted at the filesystem's root.
func NewStore(fs billy.Filesystem, opts ...StoreOption) (*Store, error) {
	codec, err := newCBORCodec()
	if err != nil {
		return nil, err
	}
	s := &Store{
		fs:           fs,
		log:          zap.NewNop(),
		newHash:      sha256.New,
		verifyOnLoad: true,
		codec:        codec,
	}
	s.cache, _ = lru.New[string, *mmt.PerfectTree](defaultCacheSize)
	for _, opt := range opts {
		opt(s)
	}
	if err := fs.MkdirAll(treesDir, 0o755); err != nil {
		return nil, err
	}
	return s, nil
}

func treePath(rootHex string) string { return path.Join(treesDir, rootHex+treeExt) }
func elemPath(rootHex string) string { return path.Join(treesDir, rootHex+elemExt) }

// PutTree persists one tree under its content address. Present files are
// left alone: the address is the root, so same name means same bytes.
func (s *Store) PutTree(t *mmt.PerfectTree) (string, error) {
	rootHex := hex.EncodeToString(t.Root())

	if _, err := s.fs.Stat(treePath(rootHex)); err == nil {
		return rootHex, nil
	}

	if err := s.writeFile(treePath(rootHex), func(w io.Writer) error {
		return EncodeTree(w, t)
	}); err != nil {
		return "", err
	}
	if err := s.writeFile(elemPath(rootHex), func(w io.Writer) error {
		return EncodeElements(w, t)
	}); err != nil {
		return "", err
	}

	s.cache.Add(rootHex, t)
	s.log.Debug("stored tree",
		zap.String("root", rootHex),
		zap.Uint8("height", t.Height()),
	)
	return rootHex, nil
}

// GetTree loads the tree addressed by rootHex, from cache when possible.
// With verification enabled (the default) every digest is recomputed from
// the element file, so a flipped byte in either artifact surfaces here.
func (s *Store) GetTree(rootHex string) (*mmt.PerfectTree, error) {
	if t, ok := s.cache.Get(rootHex); ok {
		return t, nil
	}

	height, width, data, err := s.readTreeBody(rootHex)
	if err != nil {
		return nil, err
	}
	elemHeight, elems, err := s.readElements(rootHex)
	if err != nil {
		return nil, err
	}
	if elemHeight != height {
		return nil, fmt.Errorf("%w: body height %d, element height %d",
			ErrBadHeader, height, elemHeight)
	}

	t, err := mmt.FromParts(height, width, data, elems)
	if err != nil {
		return nil, err
	}

	want, err := hex.DecodeString(rootHex)
	if err != nil || !bytes.Equal(t.Root(), want) {
		return nil, fmt.Errorf("%w: %s", ErrRootMismatch, rootHex)
	}
	if s.verifyOnLoad {
		if err := t.CheckIntegrity(s.newHash()); err != nil {
			return nil, fmt.Errorf("tree %s: %w", rootHex, err)
		}
	}

	s.cache.Add(rootHex, t)
	return t, nil
}

// SaveForest persists every subtree and then commits the manifest
// atomically. A crash between tree writes and the rename leaves the prior
// manifest, and therefore the prior forest, authoritative; the orphaned
// tree files are reclaimed by a later Sweep.
func (s *Store) SaveForest(f *forest.Forest) error {
	m := Manifest{
		Version:     FormatVersion,
		Cardinality: f.Cardinality(),
		Root:        f.Root(),
	}
	for _, t := range f.Trees() {
		fileID, err := s.PutTree(t)
		if err != nil {
			return err
		}
		m.Subtrees = append(m.Subtrees, ManifestSubtree{Height: t.Height(), FileID: fileID})
	}

	enc, err := s.codec.enc.Marshal(&m)
	if err != nil {
		return err
	}
	if err := s.writeFile(manifestName, func(w io.Writer) error {
		_, werr := w.Write(enc)
		return werr
	}); err != nil {
		return err
	}

	s.log.Info("committed forest",
		zap.Uint64("cardinality", f.Cardinality()),
		zap.String("root", hex.EncodeToString(f.Root())),
		zap.Int("subtrees", len(f.Trees())),
	)
	return nil
}

// LoadForest reconstructs the forest named by the manifest and checks its
// recomputed root against the manifest's cached one.
func (s *Store) LoadForest(opts ...forest.Option) (*forest.Forest, error) {
	m, err := s.ReadManifest()
	if err != nil {
		return nil, err
	}

	trees := make([]*mmt.PerfectTree, 0, len(m.Subtrees))
	for _, sub := range m.Subtrees {
		t, err := s.GetTree(sub.FileID)
		if err != nil {
			return nil, err
		}
		if t.Height() != sub.Height {
			return nil, fmt.Errorf("%w: manifest height %d, tree height %d",
				ErrBadHeader, sub.Height, t.Height())
		}
		trees = append(trees, t)
	}

	f, err := forest.FromTrees(trees, opts...)
	if err != nil {
		return nil, err
	}
	if f.Cardinality() != m.Cardinality || !bytes.Equal(f.Root(), m.Root) {
		return nil, ErrManifestRoot
	}
	return f, nil
}

// ReadManifest returns the committed manifest.
func (s *Store) ReadManifest() (Manifest, error) {
	file, err := s.fs.Open(manifestName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, ErrManifestNotFound
		}
		return Manifest{}, err
	}
	defer file.Close()

	enc, err := io.ReadAll(file)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := s.codec.dec.Unmarshal(enc, &m); err != nil {
		return Manifest{}, err
	}
	if m.Version != FormatVersion {
		return Manifest{}, fmt.Errorf("%w: %d", ErrBadVersion, m.Version)
	}
	return m, nil
}

// Sweep removes tree files referenced by no subtree of the committed
// manifest and returns how many it removed. Trees shared between the
// committed forest and older snapshots survive because sharing is by
// content address.
func (s *Store) Sweep() (int, error) {
	m, err := s.ReadManifest()
	if err != nil {
		return 0, err
	}
	live := make(map[string]bool, len(m.Subtrees))
	for _, sub := range m.Subtrees {
		live[sub.FileID] = true
	}

	entries, err := s.fs.ReadDir(treesDir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		ext := path.Ext(name)
		if ext != treeExt && ext != elemExt {
			continue
		}
		rootHex := strings.TrimSuffix(name, ext)
		if live[rootHex] {
			continue
		}
		if err := s.fs.Remove(path.Join(treesDir, name)); err != nil {
			return removed, err
		}
		s.cache.Remove(rootHex)
		removed++
	}
	if removed > 0 {
		s.log.Info("swept unreferenced tree files", zap.Int("removed", removed))
	}
	return removed, nil
}

// writeFile writes to a uniquely named temporary and renames over the
// target, so partially written files are never observable under their final
// name.
func (s *Store) writeFile(target string, write func(io.Writer) error) error {
	tmp := path.Join(treesDir, "tmp-"+uuid.NewString())

	file, err := s.fs.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return nil
}

func (s *Store) readTreeBody(rootHex string) (uint8, int, []byte, error) {
	file, err := s.fs.Open(treePath(rootHex))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, 0, nil, fmt.Errorf("%w: %s", ErrTreeNotFound, rootHex)
		}
		return 0, 0, nil, err
	}
	defer file.Close()
	return DecodeTreeBody(file)
}

func (s *Store) readElements(rootHex string) (uint8, [][]byte, error) {
	file, err := s.fs.Open(elemPath(rootHex))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil, fmt.Errorf("%w: %s", ErrTreeNotFound, rootHex)
		}
		return 0, nil, err
	}
	defer file.Close()
	return DecodeElements(file)
}

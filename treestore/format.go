package treestore

import "errors"

const (
	// FormatVersion is bumped on any incompatible change to the tree file
	// or manifest layouts.
	FormatVersion = 1

	// MaxTreeHeight bounds decoded heights. 2^63 leaves is beyond any
	// storable tree; anything claiming more is a corrupt or hostile file.
	MaxTreeHeight = 62

	// MaxElementBytes bounds a single decoded element encoding, so a
	// corrupt length prefix cannot demand an absurd allocation.
	MaxElementBytes = 1 << 20

	treeHeaderSize = 8
)

// File magics. Four bytes each, first byte distinct from the digest domain
// prefixes so a tree body can never be misread as a proof input.
var (
	treeMagic = [4]byte{'M', 'M', 'T', 'B'}
	elemMagic = [4]byte{'M', 'M', 'T', 'E'}
)

var (
	ErrBadMagic          = errors.New("unrecognized file magic")
	ErrBadVersion        = errors.New("unsupported format version")
	ErrBadHeader         = errors.New("malformed file header")
	ErrTruncated         = errors.New("file body is truncated")
	ErrHeightRange       = errors.New("tree height out of range")
	ErrElementTooLarge   = errors.New("element length prefix exceeds limit")
	ErrTreeNotFound      = errors.New("no tree file for the requested root")
	ErrManifestNotFound  = errors.New("no manifest present")
	ErrRootMismatch      = errors.New("stored tree root does not match its address")
	ErrManifestRoot      = errors.New("manifest root does not match the loaded trees")
)

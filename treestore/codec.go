package treestore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/DavidBuchanan314/merkle-merge-tree/mmt"
)

// EncodeTree writes a tree body: magic, version, digest width, height, one
// reserved byte, then the 2^(k+1)-1 digests in post order. The body is the
// tree's in memory layout, so this is a single sequential write and can be
// streamed as a tree is built.
func EncodeTree(w io.Writer, t *mmt.PerfectTree) error {
	var header [treeHeaderSize]byte
	copy(header[:4], treeMagic[:])
	header[4] = FormatVersion
	header[5] = uint8(t.DigestWidth())
	header[6] = t.Height()
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(t.Data())
	return err
}

// DecodeTreeBody reads a tree body written by EncodeTree and returns the
// height, digest width and flat digest sequence. The digests are not
// verified here; pair the body with its element file via DecodeElements and
// mmt.FromParts, then CheckIntegrity.
func DecodeTreeBody(r io.Reader) (uint8, int, []byte, error) {
	var header [treeHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if [4]byte(header[:4]) != treeMagic {
		return 0, 0, nil, ErrBadMagic
	}
	if header[4] != FormatVersion {
		return 0, 0, nil, fmt.Errorf("%w: %d", ErrBadVersion, header[4])
	}
	width := int(header[5])
	height := header[6]
	if width == 0 {
		return 0, 0, nil, fmt.Errorf("%w: zero digest width", ErrBadHeader)
	}
	if height > MaxTreeHeight {
		return 0, 0, nil, fmt.Errorf("%w: %d", ErrHeightRange, height)
	}

	nodes := (uint64(1) << (height + 1)) - 1
	data := make([]byte, nodes*uint64(width))
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return height, width, data, nil
}

// EncodeElements writes a tree's element file: magic, version, height, two
// reserved bytes, then each canonical element encoding in leaf order with a
// uvarint length prefix. Elements are variable width, unlike digests, hence
// the prefixes.
func EncodeElements(w io.Writer, t *mmt.PerfectTree) error {
	var header [treeHeaderSize]byte
	copy(header[:4], elemMagic[:])
	header[4] = FormatVersion
	header[5] = t.Height()
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	var scratch [binary.MaxVarintLen64]byte
	for i := uint64(0); i < t.LeafCount(); i++ {
		elem := t.Element(i)
		n := binary.PutUvarint(scratch[:], uint64(len(elem)))
		if _, err := w.Write(scratch[:n]); err != nil {
			return err
		}
		if _, err := w.Write(elem); err != nil {
			return err
		}
	}
	return nil
}

// DecodeElements reads an element file and returns the height it claims and
// the leaf encodings in order.
func DecodeElements(r io.Reader) (uint8, [][]byte, error) {
	var header [treeHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if [4]byte(header[:4]) != elemMagic {
		return 0, nil, ErrBadMagic
	}
	if header[4] != FormatVersion {
		return 0, nil, fmt.Errorf("%w: %d", ErrBadVersion, header[4])
	}
	height := header[5]
	if height > MaxTreeHeight {
		return 0, nil, fmt.Errorf("%w: %d", ErrHeightRange, height)
	}

	br := bufio.NewReader(r)
	leaves := uint64(1) << height
	elems := make([][]byte, leaves)
	for i := uint64(0); i < leaves; i++ {
		size, err := binary.ReadUvarint(br)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		if size > MaxElementBytes {
			return 0, nil, fmt.Errorf("%w: %d bytes", ErrElementTooLarge, size)
		}
		elems[i] = make([]byte, size)
		if _, err := io.ReadFull(br, elems[i]); err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
	}
	return height, elems, nil
}

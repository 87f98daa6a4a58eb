package treestore

// ManifestSubtree references one persisted perfect tree. FileID is the hex
// of the tree root, which is also its content address under trees/.
type ManifestSubtree struct {
	Height uint8  `cbor:"1,keyasint"`
	FileID string `cbor:"2,keyasint"`
}

// Manifest is the durable record of a forest: the subtrees in canonical
// order, tallest first, plus the cached forest root and cardinality. The
// manifest and the tree files it references are the complete persisted
// state.
type Manifest struct {
	Version     uint8             `cbor:"1,keyasint"`
	Cardinality uint64            `cbor:"2,keyasint"`
	Root        []byte            `cbor:"3,keyasint"`
	Subtrees    []ManifestSubtree `cbor:"4,keyasint"`
}

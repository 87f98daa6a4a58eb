package treestore

import (
	"github.com/fxamacker/cbor/v2"
)

// cborCodec pins the encode and decode modes used for manifests and
// checkpoint payloads. Canonical encoding keeps identical states byte
// identical, which the checkpoint signature relies on.
type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() (cborCodec, error) {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return cborCodec{}, err
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return cborCodec{}, err
	}
	return cborCodec{enc: enc, dec: dec}, nil
}

package forest

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/DavidBuchanan314/merkle-merge-tree/mmt"
)

var (
	ErrUnknownProofKind = errors.New("unknown proof kind")
)

// Proof kind discriminators for the wire envelope.
const (
	WireKindInclusion = uint8(1)
	WireKindExclusion = uint8(2)
)

// ProofCodec encodes proofs for transport as canonical CBOR. Field keys are
// small integers rather than names to keep proofs compact; the envelope
// carries a kind byte so a decoder need not guess.
type ProofCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewProofCodec returns a codec with canonical encode options, so the same
// proof always serializes to the same bytes.
func NewProofCodec() (ProofCodec, error) {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return ProofCodec{}, err
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return ProofCodec{}, err
	}
	return ProofCodec{enc: enc, dec: dec}, nil
}

type wirePathStep struct {
	Sibling []byte `cbor:"1,keyasint"`
	Left    bool   `cbor:"2,keyasint,omitempty"`
}

type wireInclusion struct {
	Version    uint8          `cbor:"1,keyasint"`
	HashAlg    string         `cbor:"2,keyasint"`
	Value      []byte         `cbor:"3,keyasint"`
	LeafHash   []byte         `cbor:"4,keyasint"`
	SubtreeIdx int            `cbor:"5,keyasint"`
	Path       []wirePathStep `cbor:"6,keyasint"`
	PeerRoots  [][]byte       `cbor:"7,keyasint"`
	ForestRoot []byte         `cbor:"8,keyasint"`
}

type wireWitness struct {
	Kind            uint8          `cbor:"1,keyasint"`
	Predecessor     []byte         `cbor:"2,keyasint,omitempty"`
	PredecessorPath []wirePathStep `cbor:"3,keyasint,omitempty"`
	Successor       []byte         `cbor:"4,keyasint,omitempty"`
	SuccessorPath   []wirePathStep `cbor:"5,keyasint,omitempty"`
}

type wireExclusion struct {
	Version    uint8         `cbor:"1,keyasint"`
	HashAlg    string        `cbor:"2,keyasint"`
	Target     []byte        `cbor:"3,keyasint"`
	Witnesses  []wireWitness `cbor:"4,keyasint"`
	ForestRoot []byte        `cbor:"5,keyasint"`
}

type wireEnvelope struct {
	Kind uint8           `cbor:"1,keyasint"`
	Body cbor.RawMessage `cbor:"2,keyasint"`
}

func pathToWire(path []mmt.PathStep) []wirePathStep {
	if path == nil {
		return nil
	}
	out := make([]wirePathStep, len(path))
	for i, s := range path {
		out[i] = wirePathStep{Sibling: s.Sibling, Left: s.Left}
	}
	return out
}

func pathFromWire(path []wirePathStep) []mmt.PathStep {
	if path == nil {
		return nil
	}
	out := make([]mmt.PathStep, len(path))
	for i, s := range path {
		out[i] = mmt.PathStep{Sibling: s.Sibling, Left: s.Left}
	}
	return out
}

// EncodeInclusion serializes an inclusion proof inside a kind envelope.
func (c ProofCodec) EncodeInclusion(p *InclusionProof) ([]byte, error) {
	body, err := c.enc.Marshal(&wireInclusion{
		Version:    p.Version,
		HashAlg:    p.HashAlg,
		Value:      p.Value,
		LeafHash:   p.LeafHash,
		SubtreeIdx: p.SubtreeIdx,
		Path:       pathToWire(p.Path),
		PeerRoots:  p.PeerRoots,
		ForestRoot: p.ForestRoot,
	})
	if err != nil {
		return nil, err
	}
	return c.enc.Marshal(&wireEnvelope{Kind: WireKindInclusion, Body: body})
}

// EncodeExclusion serializes an exclusion proof inside a kind envelope.
func (c ProofCodec) EncodeExclusion(p *ExclusionProof) ([]byte, error) {
	witnesses := make([]wireWitness, len(p.Witnesses))
	for i, w := range p.Witnesses {
		witnesses[i] = wireWitness{
			Kind:            uint8(w.Kind),
			Predecessor:     w.Predecessor,
			PredecessorPath: pathToWire(w.PredecessorPath),
			Successor:       w.Successor,
			SuccessorPath:   pathToWire(w.SuccessorPath),
		}
	}
	body, err := c.enc.Marshal(&wireExclusion{
		Version:    p.Version,
		HashAlg:    p.HashAlg,
		Target:     p.Target,
		Witnesses:  witnesses,
		ForestRoot: p.ForestRoot,
	})
	if err != nil {
		return nil, err
	}
	return c.enc.Marshal(&wireEnvelope{Kind: WireKindExclusion, Body: body})
}

// Decode deserializes either proof kind. Exactly one of the returned proofs
// is non-nil on success.
func (c ProofCodec) Decode(data []byte) (*InclusionProof, *ExclusionProof, error) {
	var env wireEnvelope
	if err := c.dec.Unmarshal(data, &env); err != nil {
		return nil, nil, err
	}
	switch env.Kind {
	case WireKindInclusion:
		var w wireInclusion
		if err := c.dec.Unmarshal(env.Body, &w); err != nil {
			return nil, nil, err
		}
		return &InclusionProof{
			Version:    w.Version,
			HashAlg:    w.HashAlg,
			Value:      w.Value,
			LeafHash:   w.LeafHash,
			SubtreeIdx: w.SubtreeIdx,
			Path:       pathFromWire(w.Path),
			PeerRoots:  w.PeerRoots,
			ForestRoot: w.ForestRoot,
		}, nil, nil
	case WireKindExclusion:
		var w wireExclusion
		if err := c.dec.Unmarshal(env.Body, &w); err != nil {
			return nil, nil, err
		}
		witnesses := make([]SubtreeExclusion, len(w.Witnesses))
		for i, ww := range w.Witnesses {
			witnesses[i] = SubtreeExclusion{
				Kind:            WitnessKind(ww.Kind),
				Predecessor:     ww.Predecessor,
				PredecessorPath: pathFromWire(ww.PredecessorPath),
				Successor:       ww.Successor,
				SuccessorPath:   pathFromWire(ww.SuccessorPath),
			}
		}
		return nil, &ExclusionProof{
			Version:    w.Version,
			HashAlg:    w.HashAlg,
			Target:     w.Target,
			Witnesses:  witnesses,
			ForestRoot: w.ForestRoot,
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownProofKind, env.Kind)
	}
}

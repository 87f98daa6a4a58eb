package treestore

import (
	"crypto/rand"
	"errors"

	"github.com/veraison/go-cose"
)

var (
	ErrCheckpointVerify = errors.New("checkpoint signature verification failed")
)

// Checkpoint is the state a log operator commits to when publishing a forest
// head. The timestamp allows the same root to be re-signed; cardinality is
// attested so relying parties can detect a log that shrank, which the
// structure itself forbids.
type Checkpoint struct {
	Cardinality uint64 `cbor:"1,keyasint"`
	Root        []byte `cbor:"2,keyasint"`
	Timestamp   int64  `cbor:"3,keyasint"`
}

// CheckpointSigner produces COSE Sign1 envelopes over checkpoints. A
// checkpoint should only be signed after checking the new state is an
// append of the previously signed one.
type CheckpointSigner struct {
	issuer string
	codec  cborCodec
}

// NewCheckpointSigner returns a signer that records issuer. The issuer is
// held on the signer only; it is not written into the signed envelope.
func NewCheckpointSigner(issuer string) (CheckpointSigner, error) {
	codec, err := newCBORCodec()
	if err != nil {
		return CheckpointSigner{}, err
	}
	return CheckpointSigner{issuer: issuer, codec: codec}, nil
}

// Sign1 signs the checkpoint, returning the serialized COSE Sign1 message.
func (cs CheckpointSigner) Sign1(signer cose.Signer, keyID []byte, state Checkpoint) ([]byte, error) {
	payload, err := cs.codec.enc.Marshal(&state)
	if err != nil {
		return nil, err
	}

	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm:   signer.Algorithm(),
				cose.HeaderLabelContentType: "application/mmt-checkpoint+cbor",
			},
			Unprotected: cose.UnprotectedHeader{
				cose.HeaderLabelKeyID: keyID,
			},
		},
		Payload: payload,
	}
	if err = msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}

// VerifyCheckpoint checks the envelope's signature and returns the attested
// checkpoint. The caller still owes the consistency judgement against any
// previously accepted checkpoint.
func (cs CheckpointSigner) VerifyCheckpoint(enc []byte, verifier cose.Verifier) (Checkpoint, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(enc); err != nil {
		return Checkpoint{}, err
	}
	if err := msg.Verify(nil, verifier); err != nil {
		return Checkpoint{}, errors.Join(ErrCheckpointVerify, err)
	}
	var state Checkpoint
	if err := cs.codec.dec.Unmarshal(msg.Payload, &state); err != nil {
		return Checkpoint{}, err
	}
	return state, nil
}

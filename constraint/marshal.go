package constraint

import (
	"bytes"
	"fmt"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/zkmock/plonkish"
	"github.com/zkmock/plonkish/logger"
)

// ToBytes serializes the system with deterministic CBOR. The result, plus a
// completed assignment snapshot, is the hand-off interface owed to a proving
// backend.
func (s *System[F]) ToBytes() ([]byte, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	if err := enc.NewEncoder(buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encode constraint system: %w", err)
	}
	return buf.Bytes(), nil
}

// FromBytes deserializes a system previously written by ToBytes.
func (s *System[F]) FromBytes(data []byte) error {
	dm, err := cbor.DecOptions{
		MaxArrayElements: 2147483647,
		MaxMapPairs:      2147483647,
	}.DecMode()
	if err != nil {
		return err
	}
	if err := dm.NewDecoder(bytes.NewReader(data)).Decode(s); err != nil {
		return fmt.Errorf("decode constraint system: %w", err)
	}
	return s.CheckSerializationHeader()
}

// CheckSerializationHeader parses the version header of a deserialized
// system and warns when it does not match the binary.
func (s *System[F]) CheckSerializationHeader() error {
	objectVersion, err := semver.Parse(s.Version)
	if err != nil {
		return fmt.Errorf("when parsing version header: %w", err)
	}
	if plonkish.Version.Compare(objectVersion) != 0 {
		log := logger.Logger()
		log.Warn().
			Str("binary", plonkish.Version.String()).
			Str("object", objectVersion.String()).
			Msg("version mismatch with serialized constraint system; no compatibility guarantees")
	}
	return nil
}

// Fingerprint returns a blake2b digest of the serialized shape. Assignment
// snapshots embed it so a backend can detect a witness produced for a
// different circuit.
func (s *System[F]) Fingerprint() ([blake2b.Size256]byte, error) {
	var fp [blake2b.Size256]byte
	data, err := s.ToBytes()
	if err != nil {
		return fp, err
	}
	return blake2b.Sum256(data), nil
}

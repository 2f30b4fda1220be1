package natives

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// registerHash adapts the teacher's stdlib.registerHash (hash.compute_checksum,
// hash.compute_hmac) to dfruntime's scalar model. The teacher hashes
// arbitrary byte strings; the DSL has no byte-string type, only the IEEE754
// bit pattern of a dataflow payload, so that bit pattern is what gets fed to
// crypto/sha256 here. The digest is truncated to its first 8 bytes and
// reinterpreted as a float64 so it still fits through an Output — a lossy
// but deterministic encoding, good enough for the checksumming/fingerprinting
// use the teacher's callers actually put hash.* to.
func (r *Registry) registerHash() {
	r.Register("hash_checksum", func(args []any) error {
		if err := requireArgs("hash_checksum", args, 2); err != nil {
			return err
		}
		output(args, 1).Set(digestToFloat(sha256Sum(scalar(args, 0))))
		return nil
	})

	r.Register("hash_hmac", func(args []any) error {
		if err := requireArgs("hash_hmac", args, 3); err != nil {
			return err
		}
		key := floatBytes(scalar(args, 0))
		msg := floatBytes(scalar(args, 1))
		mac := hmac.New(sha256.New, key)
		mac.Write(msg)
		output(args, 2).Set(digestToFloat(mac.Sum(nil)))
		return nil
	})
}

func floatBytes(v float64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return b[:]
}

func sha256Sum(v float64) []byte {
	sum := sha256.Sum256(floatBytes(v))
	return sum[:]
}

func digestToFloat(digest []byte) float64 {
	return float64(binary.BigEndian.Uint64(digest[:8]))
}

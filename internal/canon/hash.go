package canon

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashHexLen is the length of a content address: SHA-256 as lowercase hex.
const HashHexLen = 64

// Hash computes the content address of a Value:
//
//	SHA-256(UTF-8(Marshal(v)))
//
// rendered as 64 lowercase hex characters. Because Marshal sorts map keys,
// the hash is independent of input key order.
//
// The hash of a template is computed exactly once, at creation, by the
// template's creator. The ledger stores and trusts it; no read path
// recomputes it.
func Hash(v Value) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// HashBytes computes the content address of already-canonical bytes.
// Callers must only pass bytes produced by Marshal.
func HashBytes(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

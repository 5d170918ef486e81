package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Fingerprint derives the cache key for a review request. Each field is
// length-prefixed so that ("ab", "c") and ("a", "bc") never collide.
func Fingerprint(code, language string) string {
	h := sha256.New()
	writeField(h, code)
	writeField(h, language)
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte(s))
}

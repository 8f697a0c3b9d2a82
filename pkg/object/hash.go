package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
)

var hashPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// HashObject computes the SHA-1 of the envelope "type len\0content",
// exactly as Git names loose objects.
func HashObject(objType ObjectType, data []byte) Hash {
	h := sha1.New()
	h.Write(envelopeHeader(objType, len(data)))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ValidHash reports whether s looks like a full object name.
func ValidHash(s string) bool {
	return hashPattern.MatchString(s)
}

// ParseHash validates s and returns it as a Hash.
func ParseHash(s string) (Hash, error) {
	if !ValidHash(s) {
		return "", fmt.Errorf("invalid object hash %q", s)
	}
	return Hash(s), nil
}

// Short returns the first 8 characters of h.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

func envelopeHeader(objType ObjectType, n int) []byte {
	return []byte(fmt.Sprintf("%s %d\x00", objType, n))
}

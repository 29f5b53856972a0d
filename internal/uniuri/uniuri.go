package uniuri

import (
	"crypto/rand"
	"math"
)

// IDLen is the length of document ids, about 101 bits of entropy.
const IDLen = 17

// Chars is the alphabet of generated ids.
var Chars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// New returns a random document id.
func New() string {
	return NewLen(IDLen)
}

// NewLen returns a random string of length characters taken from Chars.
func NewLen(length int) string {
	return string(generate(length, Chars))
}

// Valid reports whether id has the shape of a document id.
func Valid(id string) bool {
	if len(id) != IDLen {
		return false
	}

	for i := 0; i < len(id); i++ {
		c := id[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}

	return true
}

const (
	maxBufLen      = 2048
	minRegenBufLen = 16
	maxByteValue   = 255
	byteRange      = 256
)

// bufLenFor estimates how many random bytes yield need characters when
// bytes above maxByte are rejected.
func bufLenFor(need, maxByte int) int {
	n := int(math.Ceil(float64(need) * (maxByteValue / float64(maxByte))))

	return min(max(n, need), maxBufLen)
}

func generate(length int, chars []byte) []byte {
	if length <= 0 {
		return nil
	}

	clen := len(chars)
	if clen < 2 || clen > byteRange {
		panic("uniuri: wrong charset length")
	}

	// bytes above maxRb would bias the modulo
	maxRb := maxByteValue - (byteRange % clen)

	buf := make([]byte, bufLenFor(length, maxRb))
	out := make([]byte, 0, length)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic("uniuri: error reading random bytes: " + err.Error())
		}

		for _, rb := range buf {
			if int(rb) > maxRb {
				continue
			}

			out = append(out, chars[int(rb)%clen])
			if len(out) == length {
				return out
			}
		}

		buf = buf[:max(bufLenFor(length-len(out), maxRb), min(minRegenBufLen, cap(buf)))]
	}
}

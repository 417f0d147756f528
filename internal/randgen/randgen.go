// Package randgen provides the random sources used for share splitting and
// synthetic event generation. A seeded source is deterministic, so two runs
// with the same seed produce identical output.
package randgen

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20"
)

// New returns a cryptographically secure random source.
func New() io.Reader {
	return rand.Reader
}

// NewSeeded returns a deterministic random source derived from seed.
// The 64-bit seed is expanded to a ChaCha20 key, and the key stream is
// the output.
func NewSeeded(seed uint64) io.Reader {
	var seedBytes [8]byte
	binary.LittleEndian.PutUint64(seedBytes[:], seed)
	key := blake3.Sum256(seedBytes[:])
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		// Only reachable with a wrong key or nonce size.
		panic(err)
	}
	return &seededReader{c: c}
}

type seededReader struct {
	c *chacha20.Cipher
}

func (r *seededReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	r.c.XORKeyStream(p, p)
	return len(p), nil
}

// Uint64 reads 8 bytes from r as a little-endian integer.
func Uint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

package core

import (
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/tuneinsight/lattigo/v4/utils"
	"golang.org/x/crypto/sha3"
)

const seedDomain = "polyoptics/band-seed/v1"

// DeriveKey hashes a base seed and a list of indices (pass, band, ...) into a 32-byte key
// with SHAKE-256. Distinct index lists give independent keys.
func DeriveKey(seed int64, indices ...int) []byte {
	h := sha3.NewShake256()
	var buf [8]byte
	h.Write([]byte(seedDomain))
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	h.Write(buf[:])
	for _, idx := range indices {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(idx)))
		h.Write(buf[:])
	}
	key := make([]byte, 32)
	h.Read(key)
	return key
}

// NewDerivedRand returns a math/rand generator for the given seed and indices. The key from
// DeriveKey drives a keyed PRNG whose first eight bytes seed the generator, so the stream
// depends only on (seed, indices) and never on which worker consumes it.
func NewDerivedRand(seed int64, indices ...int) (*rand.Rand, error) {
	prng, err := utils.NewKeyedPRNG(DeriveKey(seed, indices...))
	if err != nil {
		return nil, fmt.Errorf("keyed prng: %w", err)
	}
	var buf [8]byte
	if _, err := prng.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("keyed prng: %w", err)
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(buf[:])))), nil
}

// Package rng provides the sampler's splittable, reproducible random
// stream. A single master seed determines the entire run; independent
// sub-streams (one per concurrent draw-attempt worker, see package
// constrained) are derived deterministically from the seed and a
// sub-stream index so that re-running with the same seed and the same
// worker count reproduces the same candidate sequence per sub-stream.
package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"golang.org/x/crypto/chacha20"
)

// Stream is a deterministic, splittable random source. It is not safe
// for concurrent use by multiple goroutines; each goroutine must hold
// its own Stream obtained via Split.
type Stream struct {
	cipher *chacha20.Cipher
	path   []uint64 // derivation path from the master seed, for further splitting
	seed   int64
}

// New creates the single master stream for a run from a seed.
func New(seed int64) *Stream {
	return &Stream{cipher: newCipher(seed, nil), seed: seed}
}

// Split derives an independent child stream identified by index. Calling
// Split(i) twice on the same parent returns two streams that produce the
// identical sequence (Split is pure), so callers that need a fresh
// stream per *use* should mint a new index every time (e.g. the
// iteration counter combined with the worker id).
func (s *Stream) Split(index uint64) *Stream {
	path := append(append([]uint64(nil), s.path...), index)
	return &Stream{cipher: newCipher(s.seed, path), path: path, seed: s.seed}
}

func newCipher(seed int64, path []uint64) *chacha20.Cipher {
	h := sha256.New()
	var seedBuf [8]byte
	binary.LittleEndian.PutUint64(seedBuf[:], uint64(seed))
	h.Write(seedBuf[:])
	for _, p := range path {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], p)
		h.Write(buf[:])
	}
	key := h.Sum(nil) // 32 bytes, exactly chacha20.KeySize
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		// key/nonce sizes are fixed constants above; this cannot fail.
		panic(err)
	}
	return c
}

// Uint64 returns the next 64 keystream bits.
func (s *Stream) Uint64() uint64 {
	var zero, out [8]byte
	s.cipher.XORKeyStream(out[:], zero[:])
	return binary.LittleEndian.Uint64(out[:])
}

// Float64 returns a uniform draw in [0,1).
func (s *Stream) Float64() float64 {
	// 53 bits of mantissa, matching math/rand's Float64 construction.
	return float64(s.Uint64()>>11) * (1.0 / (1 << 53))
}

// NormFloat64 returns a standard-normal draw via the Box-Muller
// transform of two uniform draws (no accept/reject step).
func (s *Stream) NormFloat64() float64 {
	u1 := s.Float64()
	if u1 <= 0 {
		u1 = 1e-300
	}
	u2 := s.Float64()
	r := math.Sqrt(-2 * math.Log(u1))
	return r * math.Cos(2*math.Pi*u2)
}

// UnitVector draws a uniformly random direction on the D-dimensional
// unit sphere by normalizing D independent standard normals.
func (s *Stream) UnitVector(d int) []float64 {
	v := make([]float64, d)
	var norm float64
	for i := range v {
		v[i] = s.NormFloat64()
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		v[0] = 1
		return v
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}

// Intn returns a uniform draw in [0,n).
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	return int(s.Uint64() % uint64(n))
}

package game

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

const (
	MinMultiplier        = 1.00
	DefaultMaxMultiplier = 1000000.00

	// crashPointBits is how many leading bits of the HMAC digest feed the
	// uniform draw. 52 bits fit exactly in a float64 mantissa, so the
	// normalization below is lossless.
	crashPointBits = 52
)

// Generator derives provably fair crash points from committed seeds.
// The zero value is not usable; construct with NewGenerator.
type Generator struct {
	houseEdgePercent float64
	maxMultiplier    float64
}

func NewGenerator(houseEdgePercent, maxMultiplier float64) *Generator {
	if maxMultiplier <= MinMultiplier {
		maxMultiplier = DefaultMaxMultiplier
	}
	return &Generator{
		houseEdgePercent: houseEdgePercent,
		maxMultiplier:    maxMultiplier,
	}
}

// Generate computes the crash multiplier for a seed pair and nonce.
//
// HMAC-SHA256(key=serverSeed, msg=clientSeed+":"+nonce) is truncated to its
// first 52 bits, normalized to u in [0,1), then pushed through the
// inverse-uniform transform (100-edge)/(100*(1-u)), floored to 2 decimals.
// The result is clamped to [1.00, maxMultiplier]. Deterministic: the same
// inputs always yield the same crash point.
func (g *Generator) Generate(serverSeed, clientSeed string, nonce int) (float64, error) {
	if serverSeed == "" || clientSeed == "" {
		return 0, ErrInvalidSeed
	}

	h := hmac.New(sha256.New, []byte(serverSeed))
	fmt.Fprintf(h, "%s:%d", clientSeed, nonce)
	sum := h.Sum(nil)

	r := binary.BigEndian.Uint64(sum[:8]) >> (64 - crashPointBits)
	u := float64(r) / float64(uint64(1)<<crashPointBits)

	crash := (100.0 - g.houseEdgePercent) / (100.0 * (1.0 - u))
	crash = math.Floor(crash*100) / 100

	if crash < MinMultiplier {
		return MinMultiplier, nil
	}
	if crash > g.maxMultiplier {
		return g.maxMultiplier, nil
	}
	return crash, nil
}

// Verify recomputes the crash point for the revealed seeds and compares it
// to the claimed value. This is the public fairness-audit entry point.
func (g *Generator) Verify(serverSeed, clientSeed string, nonce int, claimed float64) bool {
	actual, err := g.Generate(serverSeed, clientSeed, nonce)
	if err != nil {
		return false
	}
	return actual == claimed
}

// GenerateSeed creates a cryptographically secure random seed.
func GenerateSeed() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// HashCommitment creates the SHA256 hash of a seed, published before the
// round starts as the fairness commitment.
func HashCommitment(seed string) string {
	h := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(h[:])
}

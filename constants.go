package shardkey

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"crypto/hkdf"
)

// Constants is the full set of build-time parameters the obfuscation
// pipeline needs. A build bakes in exactly one instance (buildConstants,
// in constants_generated.go) and never mutates it afterward: every process
// started from the same binary obfuscates and deobfuscates identically,
// and a different build — one regenerated with a different seed — uses
// different tables and multipliers entirely.
type Constants struct {
	ObfuscateMultiplier byte
	ObfuscateBase       byte
	XORMask             byte
	RotationBits        int
	ExtraRounds         int
	ObfuscateTable      [256]byte
	DeobfuscateTable    [256]byte
	ShardSeedOffsets    [8]byte
}

// DeriveConstants deterministically expands a seed into a full Constants
// value: HKDF over the seed produces the scalar parameters and the PRNG
// seed for the substitution table, so the same seed always yields the same
// Constants and two different seeds yield, with overwhelming probability,
// entirely different obfuscation schedules. It is the single algorithm
// shared by the pre-baked build (constants_generated.go) and the
// internal/constantsgen code generator, so the two can never drift apart.
func DeriveConstants(seed []byte) Constants {
	if len(seed) == 0 {
		panic("shardkey: constants seed must not be empty")
	}

	scalars := hkdfExpand(seed, "shardkey/constants/scalars:v1", 8)
	c := Constants{
		ObfuscateMultiplier: scalars[0] | 1, // must be odd: needed for a mod-256 multiplicative inverse to exist
		ObfuscateBase:       scalars[1],
		XORMask:             scalars[2],
		RotationBits:        int(scalars[3]%7) + 1, // 1..7; 0 and 8 are no-ops
		ExtraRounds:         int(scalars[4]%3) + 1, // 1..3
	}

	sboxSeed := hkdfExpand(seed, "shardkey/constants/sbox:v1", 16)
	rng := rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(sboxSeed[:8]),
		binary.LittleEndian.Uint64(sboxSeed[8:]),
	))
	for i := range c.ObfuscateTable {
		c.ObfuscateTable[i] = byte(i)
	}
	for i := 255; i > 0; i-- {
		j := rng.IntN(i + 1)
		c.ObfuscateTable[i], c.ObfuscateTable[j] = c.ObfuscateTable[j], c.ObfuscateTable[i]
	}
	for i, v := range c.ObfuscateTable {
		c.DeobfuscateTable[v] = byte(i)
	}

	shardSeeds := hkdfExpand(seed, "shardkey/constants/shardseeds:v1", len(c.ShardSeedOffsets))
	copy(c.ShardSeedOffsets[:], shardSeeds)

	return c
}

func hkdfExpand(seed []byte, context string, size int) []byte {
	material, err := hkdf.Key(sha256.New, seed, nil, context, size)
	if err != nil {
		panic(fmt.Sprintf("shardkey: hkdf expand failed: %v", err))
	}
	return material
}

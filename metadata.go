package shardkey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/arjunv/shardkey/internal/reservation"
)

const (
	// ShardSize is the fixed size, in bytes, of every reserved shard slot.
	ShardSize = reservation.ShardSize
	// MetaSize is the fixed size, in bytes, of the reserved metadata slot.
	MetaSize = reservation.MetaSize
	// NumCanonicalSlots is the number of shard slots a host binary may
	// reserve; GenerateMetadata picks a subset of these.
	NumCanonicalSlots = reservation.NumCanonicalSlots
	// MetadataVersion is written into every freshly generated record.
	MetadataVersion = 1
)

var canonicalShardNames = func() [NumCanonicalSlots]string {
	var names [NumCanonicalSlots]string
	for i := range names {
		names[i] = reservation.ShardSectionName(i)
	}
	return names
}()

// Metadata describes how a store's capacity is carved up: which reserved
// sections participate, in what order, and how large each one is. It is
// serialized as JSON and spliced into the reserved metadata section behind
// an 8-byte little-endian length prefix that records the stored secret's
// current length, not the metadata's own length.
type Metadata struct {
	NumShards  int      `json:"num_shards"`
	ShardSizes []int    `json:"shard_sizes"`
	ShardNames []string `json:"shard_names"`
	Version    int      `json:"version"`
}

// GenerateMetadata picks a random number of shards (4..=8) and a random
// subset of the eight canonical slot names, in shuffled order. Open calls
// it whenever the metadata slot holds no readable record; the first
// UpdateBytes splices that layout into the slot, and from then on it is
// permanent for that binary, since later updates leave a readable record
// as it is.
func GenerateMetadata() Metadata {
	n := 4 + rand.IntN(5) // 4..8 inclusive
	order := rand.Perm(NumCanonicalSlots)

	names := make([]string, n)
	sizes := make([]int, n)
	for i := 0; i < n; i++ {
		names[i] = canonicalShardNames[order[i]]
		sizes[i] = ShardSize
	}

	return Metadata{
		NumShards:  n,
		ShardSizes: sizes,
		ShardNames: names,
		Version:    MetadataVersion,
	}
}

// TotalCapacity returns the sum of every participating shard's size: the
// largest secret, in bytes, this metadata can hold.
func (m Metadata) TotalCapacity() int {
	total := 0
	for _, s := range m.ShardSizes {
		total += s
	}
	return total
}

// Validate checks internal consistency: shard counts and the two parallel
// slices must agree, and the shard count must fit within the canonical
// slot space.
func (m Metadata) Validate() error {
	if m.NumShards <= 0 {
		return newErr(KindConfig, "num_shards must be positive")
	}
	if m.NumShards > NumCanonicalSlots {
		return newErr(KindConfig, fmt.Sprintf("num_shards %d exceeds %d canonical slots", m.NumShards, NumCanonicalSlots))
	}
	if len(m.ShardSizes) != m.NumShards {
		return newErr(KindConfig, "shard_sizes length does not match num_shards")
	}
	if len(m.ShardNames) != m.NumShards {
		return newErr(KindConfig, "shard_names length does not match num_shards")
	}
	return nil
}

// ToBytes serializes m as JSON.
func (m Metadata) ToBytes() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, wrapErr(KindParse, "marshal metadata", err)
	}
	return b, nil
}

// MetadataFromBytes extracts and parses a JSON object embedded in data,
// bounded by the first '{' and the last '}'. This lets the metadata slot
// hold the JSON alongside the unrelated length prefix and trailing zero
// padding without needing its own length field.
func MetadataFromBytes(data []byte) (Metadata, error) {
	start := bytes.IndexByte(data, '{')
	if start < 0 {
		return Metadata{}, newErr(KindParse, "no metadata JSON start marker found")
	}
	end := bytes.LastIndexByte(data, '}')
	if end < 0 || end < start {
		return Metadata{}, newErr(KindParse, "no metadata JSON end marker found")
	}

	var m Metadata
	if err := json.Unmarshal(data[start:end+1], &m); err != nil {
		return Metadata{}, wrapErr(KindParse, "unmarshal metadata JSON", err)
	}
	return m, nil
}

package shardkey

import "crypto/sha256"

// deriveSectionName names the code section the per-shard key is derived
// from. Using .text ties every shard's key to the executable's own code
// bytes: recompiling, even without touching shardkey's data at all,
// silently invalidates every stored shard.
const deriveSectionName = ".text"

// deriveKey hashes the named section's current bytes with SHA-256 and
// truncates the digest to length (capped at 32, the digest size). It never
// touches a persistent key store; the "key" is recomputed from the image
// every time it is needed.
func deriveKey(image []byte, sectionName string, length int) ([]byte, error) {
	data, err := sectionData(image, sectionName)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	if length > len(sum) {
		length = len(sum)
	}
	if length < 0 {
		length = 0
	}
	out := make([]byte, length)
	copy(out, sum[:length])
	return out, nil
}

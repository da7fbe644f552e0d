// Package shardkey stores a small secret inside the calling executable
// itself, split across several reserved, fixed-size ELF sections and
// encrypted with a key derived from the executable's own code. There is no
// external key file and no network call: the binary's own bytes, at the
// time a shard is read, are the only key material. Updating the secret
// rewrites those sections in place through an atomic replace-and-rename of
// the whole binary, so a process that is already running keeps executing
// from its original, now-unlinked inode while newly spawned processes pick
// up the change.
package shardkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/arjunv/shardkey/internal/reservation"
)

// metaSectionName is the reserved slot holding the length-prefixed
// metadata record.
const metaSectionName = reservation.MetaSectionName

// metaLengthPrefixSize is the width, in bytes, of the little-endian length
// prefix stored at the front of the metadata section.
const metaLengthPrefixSize = 8

// atomicWriteMu serializes atomicWrite calls, which all use path+".tmp".
var atomicWriteMu sync.Mutex

// KeyStore is a handle to one executable's reserved storage. It is cheap
// to open repeatedly; nothing about it is cached across process restarts
// except what is already durable in the executable's own sections.
type KeyStore struct {
	exePath  string
	metadata Metadata
}

// Open locates the running executable, reads its current metadata slot,
// and generates a fresh layout if none is present yet. The generated
// layout is held in memory only until the first UpdateBytes call persists
// it.
func Open() (*KeyStore, error) {
	path, err := currentExecutablePath()
	if err != nil {
		return nil, err
	}
	return openAt(path)
}

func openAt(path string) (*KeyStore, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapErr(KindIO, "read executable image", err)
	}

	metadata, err := readMetadata(image)
	if err != nil {
		metadata = GenerateMetadata()
	}
	if err := metadata.Validate(); err != nil {
		return nil, err
	}

	return &KeyStore{exePath: path, metadata: metadata}, nil
}

func readMetadata(image []byte) (Metadata, error) {
	offset, size, err := findSection(image, metaSectionName)
	if err != nil {
		return Metadata{}, err
	}
	if size < metaLengthPrefixSize {
		return Metadata{}, newErr(KindConfig, fmt.Sprintf("metadata section too small: %d < %d", size, metaLengthPrefixSize))
	}
	body := image[offset+metaLengthPrefixSize : offset+size]
	return MetadataFromBytes(body)
}

// Capacity returns the maximum secret length, in bytes, this store's
// current layout can hold.
func (k *KeyStore) Capacity() int {
	return k.metadata.TotalCapacity()
}

// UpdateBytes splits secret across the store's shards, encrypts each under
// a key derived from the executable's current code, splices the
// ciphertext and an updated length prefix into the image, and atomically
// replaces the executable file with the result. It fails with KindConfig
// before touching anything if secret does not fit the store's capacity.
func (k *KeyStore) UpdateBytes(secret []byte) error {
	capacity := k.metadata.TotalCapacity()
	if len(secret) > capacity {
		return newErr(KindConfig, fmt.Sprintf("secret length %d exceeds capacity %d", len(secret), capacity))
	}

	image, err := os.ReadFile(k.exePath)
	if err != nil {
		return wrapErr(KindIO, "read executable image", err)
	}

	if _, err := readMetadata(image); err != nil {
		if err := k.spliceMetadataJSON(image); err != nil {
			return err
		}
	}

	padded := make([]byte, capacity)
	copy(padded, secret)

	shardOffset := 0
	for i, shardSize := range k.metadata.ShardSizes {
		chunk := padded[shardOffset : shardOffset+shardSize]
		shardOffset += shardSize

		name := k.metadata.ShardNames[i]
		secOffset, secSize, err := findSection(image, name)
		if err != nil {
			return err
		}
		if int(secSize) < shardSize {
			return newErr(KindSizeMismatch, fmt.Sprintf("shard %s: expected at least %d bytes, section has %d", name, shardSize, secSize))
		}

		key, err := deriveKey(image, deriveSectionName, shardSize)
		if err != nil {
			return err
		}

		cipher := encryptShard(&buildConstants, chunk, key, shardSeed(i))
		copy(image[secOffset:secOffset+int64(shardSize)], cipher)
	}

	metaOffset, _, err := findSection(image, metaSectionName)
	if err != nil {
		return err
	}
	var lenBytes [metaLengthPrefixSize]byte
	binary.LittleEndian.PutUint64(lenBytes[:], uint64(len(secret)))
	copy(image[metaOffset:metaOffset+metaLengthPrefixSize], lenBytes[:])

	return atomicWrite(k.exePath, image)
}

// shardSeed derives shard i's per-position tweak from the build's constant
// offsets, folding in the shard index so that two shards sharing an offset
// (when num_shards > len(ShardSeedOffsets), which cannot happen here, but
// the formula stays correct regardless) never collide.
func shardSeed(i int) byte {
	offsets := buildConstants.ShardSeedOffsets
	return offsets[i%len(offsets)] + byte(i)
}

func (k *KeyStore) spliceMetadataJSON(image []byte) error {
	metaOffset, metaSize, err := findSection(image, metaSectionName)
	if err != nil {
		return err
	}
	jsonBytes, err := k.metadata.ToBytes()
	if err != nil {
		return err
	}
	if metaLengthPrefixSize+len(jsonBytes) > int(metaSize) {
		return newErr(KindConfig, fmt.Sprintf("metadata JSON (%d bytes) does not fit in %d-byte section", len(jsonBytes), metaSize))
	}
	start := int(metaOffset) + metaLengthPrefixSize
	copy(image[start:start+len(jsonBytes)], jsonBytes)
	return nil
}

// Update is the UTF-8 string convenience wrapper around UpdateBytes.
func (k *KeyStore) Update(secret string) error {
	return k.UpdateBytes([]byte(secret))
}

// ReadBytes decrypts the stored secret from the executable's current
// shards, reading exactly as many leading bytes from each shard's
// plaintext as the stored length still requires.
func (k *KeyStore) ReadBytes() ([]byte, error) {
	image, err := os.ReadFile(k.exePath)
	if err != nil {
		return nil, wrapErr(KindIO, "read executable image", err)
	}

	metaOffset, metaSize, err := findSection(image, metaSectionName)
	if err != nil {
		return nil, err
	}
	if metaSize < metaLengthPrefixSize {
		return nil, newErr(KindConfig, fmt.Sprintf("metadata section too small: %d < %d", metaSize, metaLengthPrefixSize))
	}
	length := binary.LittleEndian.Uint64(image[metaOffset : metaOffset+metaLengthPrefixSize])
	if length == 0 {
		return []byte{}, nil
	}

	capacity := uint64(k.metadata.TotalCapacity())
	if length > capacity {
		return nil, newErr(KindConfig, fmt.Sprintf("stored length %d exceeds capacity %d", length, capacity))
	}

	out := make([]byte, 0, length)
	remaining := length
	for i, shardSize := range k.metadata.ShardSizes {
		if remaining == 0 {
			break
		}

		name := k.metadata.ShardNames[i]
		secOffset, secSize, err := findSection(image, name)
		if err != nil {
			return nil, err
		}
		if int(secSize) < shardSize {
			return nil, newErr(KindSizeMismatch, fmt.Sprintf("shard %s: expected at least %d bytes, section has %d", name, shardSize, secSize))
		}

		key, err := deriveKey(image, deriveSectionName, shardSize)
		if err != nil {
			return nil, err
		}
		cipherChunk := image[secOffset : secOffset+int64(shardSize)]
		plain := decryptShard(&buildConstants, cipherChunk, key, shardSeed(i))

		take := remaining
		if uint64(len(plain)) < take {
			take = uint64(len(plain))
		}
		out = append(out, plain[:take]...)
		remaining -= take
	}
	return out, nil
}

// Read is the UTF-8 string convenience wrapper around ReadBytes. It fails
// with KindParse if the decrypted bytes are not valid UTF-8.
func (k *KeyStore) Read() (string, error) {
	b, err := k.ReadBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", newErr(KindParse, "stored secret is not valid UTF-8")
	}
	return string(b), nil
}

// atomicWrite writes data to path+".tmp" in the same directory as path,
// copies path's current permission bits onto the temp file, then renames
// it over path. The rename is atomic on any POSIX filesystem: a process
// that already has path open keeps reading its original inode, and any
// process that opens path after the rename sees the new content in full,
// never a partial write. Calls within one process are serialized, so
// concurrent writers never share the temp file: the last renamer wins.
func atomicWrite(path string, data []byte) error {
	atomicWriteMu.Lock()
	defer atomicWriteMu.Unlock()

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return wrapErr(KindIO, "write temp file", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return wrapErr(KindIO, "stat original executable", err)
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return wrapErr(KindIO, "copy permissions to temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return wrapErr(KindIO, "atomic rename", err)
	}
	return nil
}

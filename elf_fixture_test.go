package shardkey

import "encoding/binary"

// fixtureSection describes one ELF section a test image should contain.
type fixtureSection struct {
	name string
	data []byte
	typ  uint32 // elf.SHT_PROGBITS by default (0 means "use default")
}

const (
	shtProgbits = 1
	shtStrtab   = 3
	shtNobits   = 8
)

// buildFixtureELF assembles a minimal, syntactically valid little-endian
// ELF64 image containing exactly the given sections (plus the mandatory
// NULL section and a trailing .shstrtab), laid out so that debug/elf can
// parse it and find each section by name with the right offset and size.
// It is not a runnable executable; no program headers, entry point, or
// relocations are present. It exists to drive findSection/deriveKey/
// KeyStore tests without needing a real compiled binary.
func buildFixtureELF(sections []fixtureSection) []byte {
	const ehsize = 64
	const shentsize = 64

	names := make([]string, 0, len(sections)+2)
	names = append(names, "") // NULL section
	for _, s := range sections {
		names = append(names, s.name)
	}
	names = append(names, ".shstrtab")

	var shstrtab []byte
	nameOffsets := make([]uint32, len(names))
	for i, n := range names {
		nameOffsets[i] = uint32(len(shstrtab))
		shstrtab = append(shstrtab, []byte(n)...)
		shstrtab = append(shstrtab, 0)
	}

	numSections := len(sections) + 2

	dataOffsets := make([]uint64, len(sections))
	cur := uint64(ehsize)
	for i, s := range sections {
		dataOffsets[i] = cur
		cur += uint64(len(s.data))
	}
	shstrtabOffset := cur
	cur += uint64(len(shstrtab))
	if rem := cur % 8; rem != 0 {
		cur += 8 - rem
	}
	shoff := cur

	buf := make([]byte, shoff+uint64(numSections)*shentsize)

	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT
	binary.LittleEndian.PutUint16(buf[16:18], 2)        // e_type = ET_EXEC
	binary.LittleEndian.PutUint16(buf[18:20], 0x3e)     // e_machine = EM_X86_64
	binary.LittleEndian.PutUint32(buf[20:24], 1)        // e_version
	binary.LittleEndian.PutUint64(buf[40:48], shoff)    // e_shoff
	binary.LittleEndian.PutUint16(buf[52:54], ehsize)   // e_ehsize
	binary.LittleEndian.PutUint16(buf[58:60], shentsize) // e_shentsize
	binary.LittleEndian.PutUint16(buf[60:62], uint16(numSections))
	binary.LittleEndian.PutUint16(buf[62:64], uint16(numSections-1)) // e_shstrndx

	for i, s := range sections {
		copy(buf[dataOffsets[i]:dataOffsets[i]+uint64(len(s.data))], s.data)
	}
	copy(buf[shstrtabOffset:shstrtabOffset+uint64(len(shstrtab))], shstrtab)

	writeShdr := func(idx int, nameOff uint32, typ uint32, offset, size uint64) {
		base := shoff + uint64(idx)*shentsize
		binary.LittleEndian.PutUint32(buf[base+0:base+4], nameOff)
		binary.LittleEndian.PutUint32(buf[base+4:base+8], typ)
		binary.LittleEndian.PutUint64(buf[base+8:base+16], 0x3) // SHF_WRITE|SHF_ALLOC
		binary.LittleEndian.PutUint64(buf[base+16:base+24], 0) // addr
		binary.LittleEndian.PutUint64(buf[base+24:base+32], offset)
		binary.LittleEndian.PutUint64(buf[base+32:base+40], size)
		binary.LittleEndian.PutUint32(buf[base+40:base+44], 0) // link
		binary.LittleEndian.PutUint32(buf[base+44:base+48], 0) // info
		binary.LittleEndian.PutUint64(buf[base+48:base+56], 1) // addralign
		binary.LittleEndian.PutUint64(buf[base+56:base+64], 0) // entsize
	}

	writeShdr(0, 0, 0, 0, 0)
	for i, s := range sections {
		typ := uint32(shtProgbits)
		if s.typ != 0 {
			typ = s.typ
		}
		size := uint64(len(s.data))
		offset := dataOffsets[i]
		if typ == shtNobits {
			// NOBITS sections occupy no file range; findSection rejects
			// them by type before ever reading offset/size, so the exact
			// value here is unreachable, but zero keeps it honest.
			offset = 0
		}
		writeShdr(1+i, nameOffsets[1+i], typ, offset, size)
	}
	writeShdr(numSections-1, nameOffsets[len(nameOffsets)-1], shtStrtab, shstrtabOffset, uint64(len(shstrtab)))

	return buf
}

// fixedLayoutMetadata returns a deterministic 8-shard, 8192-byte-capacity
// Metadata, for tests that want a known capacity instead of
// GenerateMetadata's random 4..8 shard count.
func fixedLayoutMetadata() Metadata {
	names := make([]string, NumCanonicalSlots)
	sizes := make([]int, NumCanonicalSlots)
	for i := range names {
		names[i] = canonicalShardNames[i]
		sizes[i] = ShardSize
	}
	return Metadata{
		NumShards:  NumCanonicalSlots,
		ShardSizes: sizes,
		ShardNames: names,
		Version:    MetadataVersion,
	}
}

// buildKeyStoreFixture assembles a full fixture image: a .text section
// with the given code bytes (the key-derivation source), a .key_meta
// section pre-populated with meta's JSON (or left zeroed if meta is nil,
// simulating an uninitialized binary), and one section per meta's shard
// names (or, if meta is nil, all NumCanonicalSlots canonical slots) sized
// to ShardSize.
func buildKeyStoreFixture(code []byte, meta *Metadata) []byte {
	secs := []fixtureSection{
		{name: deriveSectionName, data: code},
	}

	metaBody := make([]byte, MetaSize)
	if meta != nil {
		jsonBytes, err := meta.ToBytes()
		if err != nil {
			panic(err)
		}
		copy(metaBody[metaLengthPrefixSize:], jsonBytes)
	}
	secs = append(secs, fixtureSection{name: metaSectionName, data: metaBody})

	shardNames := canonicalShardNames[:]
	if meta != nil {
		shardNames = meta.ShardNames
	}
	for _, name := range shardNames {
		secs = append(secs, fixtureSection{name: name, data: make([]byte, ShardSize)})
	}

	return buildFixtureELF(secs)
}

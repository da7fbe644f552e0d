// Package reservation names the storage reservation ABI shardkey's engine
// depends on, without implementing it. Carving out named, writable,
// fixed-size sections in an ELF binary and keeping the linker from
// discarding them is a build-time, per-host-binary concern; it cannot be
// done from inside the library that later reads and rewrites those
// sections at runtime.
//
// A host binary on Linux satisfies this ABI one of two ways:
//
//   - cgo: declare zero-initialized C arrays of the right size with
//     __attribute__((section(name), used)) in a cgo preamble. The `used`
//     attribute stops the C compiler from discarding an otherwise
//     unreferenced static array; cgo's use of the host linker then keeps
//     the translation unit's sections intact through final link.
//
//   - post-link: build normally, then run
//     `objcopy --add-section NAME=FILE --set-section-flags NAME=alloc,load,data`
//     against the resulting binary for each reserved section, supplying a
//     FILE of the right size (for example, SIZE zero bytes from
//     /dev/zero).
//
// Either way, the reserved sections must end up PROGBITS (not NOBITS/.bss,
// which has no file range shardkey could read or write), writable, and
// exactly the size this package names.
package reservation

import "fmt"

const (
	// MetaSectionName is the reserved slot for the length-prefixed
	// metadata record.
	MetaSectionName = ".key_meta"
	// MetaSize is MetaSectionName's required size in bytes.
	MetaSize = 4096
	// ShardSize is every shard slot's required size in bytes.
	ShardSize = 1024
	// NumCanonicalSlots is the number of shard slots a host binary may
	// reserve. A given store uses some subset of them, chosen at
	// metadata-generation time.
	NumCanonicalSlots = 8
)

// ShardSectionName returns the canonical name of shard slot i, for
// i in [0, NumCanonicalSlots).
func ShardSectionName(i int) string {
	return fmt.Sprintf(".key_data_%02d", i)
}

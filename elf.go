package shardkey

import (
	"bytes"
	"debug/elf"
	"fmt"
)

// findSection locates name in image and returns its file offset and size.
// It fails with KindParse if image is not a valid ELF file or the section
// has no file range (for example a NOBITS section), and with
// KindSectionNotFound if no section by that name exists.
func findSection(image []byte, name string) (offset int64, size int64, err error) {
	f, ferr := elf.NewFile(bytes.NewReader(image))
	if ferr != nil {
		return 0, 0, wrapErr(KindParse, "parse ELF image", ferr)
	}
	defer f.Close()

	sec := f.Section(name)
	if sec == nil {
		return 0, 0, newErr(KindSectionNotFound, fmt.Sprintf("section %q not found", name))
	}
	if sec.Type == elf.SHT_NOBITS {
		return 0, 0, newErr(KindParse, fmt.Sprintf("section %q has no file range", name))
	}

	end := int64(sec.Offset) + int64(sec.Size)
	if end > int64(len(image)) {
		return 0, 0, newErr(KindParse, fmt.Sprintf("section %q file range exceeds image size", name))
	}
	return int64(sec.Offset), int64(sec.Size), nil
}

// sectionData returns a copy of the raw bytes backing the named section.
func sectionData(image []byte, name string) ([]byte, error) {
	offset, size, err := findSection(image, name)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, image[offset:offset+size])
	return out, nil
}

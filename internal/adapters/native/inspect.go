// Package native inspects native images and opens native libraries through
// the operating system loader.
package native

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports"
)

var _ ports.ArchInspector = (*Inspector)(nil)

// Inspector implements ports.ArchInspector for PE, ELF and Mach-O images.
type Inspector struct{}

// NewInspector creates a new Inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// Arch returns the architecture recorded in the image header. Universal Mach-O
// binaries are reported as domain.ArchAny.
func (i *Inspector) Arch(data []byte) (domain.Arch, bool) {
	r := bytes.NewReader(data)
	switch {
	case bytes.HasPrefix(data, []byte("MZ")):
		f, err := pe.NewFile(r)
		if err != nil {
			return domain.ArchAny, false
		}
		switch f.Machine {
		case pe.IMAGE_FILE_MACHINE_I386:
			return domain.ArchX86, true
		case pe.IMAGE_FILE_MACHINE_AMD64:
			return domain.ArchX64, true
		}
	case bytes.HasPrefix(data, []byte(elf.ELFMAG)):
		f, err := elf.NewFile(r)
		if err != nil {
			return domain.ArchAny, false
		}
		switch f.Machine {
		case elf.EM_386:
			return domain.ArchX86, true
		case elf.EM_X86_64:
			return domain.ArchX64, true
		}
	default:
		if f, err := macho.NewFile(r); err == nil {
			switch f.Cpu {
			case macho.Cpu386:
				return domain.ArchX86, true
			case macho.CpuAmd64:
				return domain.ArchX64, true
			}
			return domain.ArchAny, false
		}
		if _, err := macho.NewFatFile(r); err == nil {
			return domain.ArchAny, true
		}
	}
	return domain.ArchAny, false
}

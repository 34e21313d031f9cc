package domain

import (
	"path/filepath"
	"strings"
)

// ModuleExt is the file extension of managed modules.
const ModuleExt = ".wmod"

// BaseLibrary is the name of the base runtime library every managed module references.
const BaseLibrary = "corlib"

// Kind classifies a dependency by how it has to be resolved at run time.
type Kind uint8

const (
	// KindManaged is a pure managed module, loaded from memory.
	KindManaged Kind = iota
	// KindNative is a native library that the OS loader has to open from a file.
	KindNative
	// KindMixed is a managed module carrying a native payload.
	KindMixed
)

// String returns the resource tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindManaged:
		return "managed"
	case KindNative:
		return "native"
	case KindMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// ParseKind converts a resource tag back to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "managed":
		return KindManaged, true
	case "native":
		return KindNative, true
	case "mixed":
		return KindMixed, true
	default:
		return 0, false
	}
}

// Arch is the processor architecture a dependency was built for.
type Arch uint8

const (
	// ArchAny means architecture neutral, or unknown.
	ArchAny Arch = iota
	// ArchX86 is 32-bit x86.
	ArchX86
	// ArchX64 is 64-bit x86.
	ArchX64
)

// String returns the resource tag of the architecture.
func (a Arch) String() string {
	switch a {
	case ArchX86:
		return "x86"
	case ArchX64:
		return "x64"
	default:
		return "any"
	}
}

// ParseArch converts a resource tag or a GOARCH value to an Arch.
func ParseArch(s string) (Arch, bool) {
	switch strings.ToLower(s) {
	case "any", "":
		return ArchAny, true
	case "x86", "386", "i386":
		return ArchX86, true
	case "x64", "amd64", "x86_64":
		return ArchX64, true
	default:
		return ArchAny, false
	}
}

// Dependency is a classified copy-local reference. It is immutable once classified.
type Dependency struct {
	// Name is the canonical name used to resolve the dependency at run time.
	Name string
	// Path is the file the dependency was read from.
	Path string
	// Content holds the raw file bytes.
	Content []byte
	Kind    Kind
	Arch    Arch
	// Hash is the hex xxhash64 of Content.
	Hash string
}

// FileName returns the file name the dependency is materialized under.
func (d Dependency) FileName() string {
	if d.Kind == KindNative {
		return strings.ToLower(filepath.Base(d.Path))
	}
	return strings.ToLower(d.Name) + ModuleExt
}

// Key returns the resource key of the dependency.
func (d Dependency) Key() ResourceKey {
	arch := d.Arch
	if d.Kind == KindManaged {
		arch = ArchAny
	}
	return ResourceKey{Kind: d.Kind, Arch: arch, Name: strings.ToLower(d.Name)}
}

// CanonicalName derives the canonical name of a native library from its path.
func CanonicalName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

package domain

import "strings"

// Config holds the settings of one weaving run.
type Config struct {
	// Module is the path of the module to process.
	Module string
	// Output is where the processed module is written. Defaults to Module.
	Output string
	// References are the copy-local dependency files.
	References []string
	// ReferenceDirs are walked for additional copy-local files.
	ReferenceDirs []string
	// SearchPaths are searched by the metadata resolver.
	SearchPaths []string
	// Unmanaged lists names known to carry native code, architecture taken from the payload.
	Unmanaged []string
	// Unmanaged32 lists names known to carry 32-bit native code.
	Unmanaged32 []string
	// Unmanaged64 lists names known to carry 64-bit native code.
	Unmanaged64 []string
	// Include restricts embedding to names matching one of these patterns.
	Include []string
	// Exclude skips names matching one of these patterns.
	Exclude []string
	// Preload names native dependencies to materialize when the module starts.
	Preload []string
	// CreateTemporaryAssemblies makes the injected loader extract managed
	// dependencies to files and load them from there.
	CreateTemporaryAssemblies bool
	// DisableCompression stores payloads uncompressed.
	DisableCompression bool
	// StageResources writes each payload to the staging directory before merging it.
	StageResources bool
	// StagingDir is the directory used when StageResources is set.
	StagingDir string
}

// OutputPath returns the effective output path.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return c.Module
}

// Hints returns the unmanaged hint lists as a single lookup.
func (c *Config) Hints() Hints {
	return NewHints(c.Unmanaged, c.Unmanaged32, c.Unmanaged64)
}

// Hints maps lower-case dependency names hinted as unmanaged to their architecture.
type Hints map[string]Arch

// NewHints builds Hints; arch-qualified lists win over the neutral one. A
// name in both the 32-bit and the 64-bit list ships in both builds, so it is
// hinted as ArchAny and every file keeps the architecture of its own binary.
func NewHints(anyArch, x86, x64 []string) Hints {
	h := make(Hints, len(anyArch)+len(x86)+len(x64))
	for _, n := range anyArch {
		h[normalizeHint(n)] = ArchAny
	}
	in32 := make(map[string]bool, len(x86))
	for _, n := range x86 {
		key := normalizeHint(n)
		h[key] = ArchX86
		in32[key] = true
	}
	for _, n := range x64 {
		key := normalizeHint(n)
		if in32[key] {
			h[key] = ArchAny
			continue
		}
		h[key] = ArchX64
	}
	return h
}

// Lookup reports whether name is hinted and with which architecture.
func (h Hints) Lookup(name string) (Arch, bool) {
	arch, ok := h[normalizeHint(name)]
	return arch, ok
}

func normalizeHint(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, ext := range []string{ModuleExt, ".dll", ".so", ".dylib"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

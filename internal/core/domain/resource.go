package domain

import (
	"fmt"
	"strings"
)

const (
	// ResourcePrefix marks every resource written by weld.
	ResourcePrefix = "weld/"
	// CompressedSuffix is appended to the names of compressed resources.
	CompressedSuffix = ".deflate"
)

// ResourceKey identifies an embedded dependency independently of its encoding.
type ResourceKey struct {
	Kind Kind
	Arch Arch
	// Name is the lower-case canonical name.
	Name string
}

// String renders the key for logs and error metadata.
func (k ResourceKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.Arch, k.Name)
}

// EmbeddedResource describes a resource that was written into a module.
type EmbeddedResource struct {
	Name       string
	Key        ResourceKey
	FileName   string
	Compressed bool
	// Size is the stored (possibly compressed) size.
	Size int
	// OriginalSize is the size of the dependency before compression.
	OriginalSize int
	// Reused is set when the module already carried the identical resource.
	Reused bool
}

// ResourceName builds the name of the resource holding a dependency:
// weld/<kind>/<arch>/<file>[.deflate].
func ResourceName(key ResourceKey, fileName string, compressed bool) string {
	name := ResourcePrefix + key.Kind.String() + "/" + key.Arch.String() + "/" + strings.ToLower(fileName)
	if compressed {
		name += CompressedSuffix
	}
	return name
}

// ParseResourceName reverses ResourceName. The second result is false for
// resources that were not written by weld.
func ParseResourceName(name string) (EmbeddedResource, bool) {
	rest, ok := strings.CutPrefix(name, ResourcePrefix)
	if !ok {
		return EmbeddedResource{}, false
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[2] == "" {
		return EmbeddedResource{}, false
	}

	kind, ok := ParseKind(parts[0])
	if !ok {
		return EmbeddedResource{}, false
	}
	arch, ok := ParseArch(parts[1])
	if !ok {
		return EmbeddedResource{}, false
	}

	file, compressed := strings.CutSuffix(parts[2], CompressedSuffix)
	if file == "" || strings.Contains(file, "/") {
		return EmbeddedResource{}, false
	}

	return EmbeddedResource{
		Name:       name,
		Key:        ResourceKey{Kind: kind, Arch: arch, Name: CanonicalName(file)},
		FileName:   file,
		Compressed: compressed,
	}, true
}

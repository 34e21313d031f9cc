package ports

import "go.trai.ch/weld/internal/core/domain"

// ArchInspector detects the architecture of native images.
//
//go:generate mockgen -destination=mocks/native_mock.go -package=mocks -source=native.go
type ArchInspector interface {
	// Arch returns the architecture of the native image in data and whether it was recognized.
	Arch(data []byte) (domain.Arch, bool)
}

// NativeLoader opens native libraries through the operating system loader.
type NativeLoader interface {
	Open(path string) (NativeLibrary, error)
}

// NativeLibrary is an opened native library.
type NativeLibrary interface {
	// Call invokes the exported symbol, which takes no arguments and returns a C string.
	Call(symbol string) (string, error)
	Close() error
}

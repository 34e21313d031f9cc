package native

import (
	"runtime"
	"strings"

	"go.trai.ch/weld/internal/core/ports"
)

var _ ports.NativeLoader = (*Loader)(nil)

// Loader implements ports.NativeLoader with the platform's dynamic loader.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Open loads the library at path.
func (l *Loader) Open(path string) (ports.NativeLibrary, error) {
	lib, err := open(path)
	if err != nil {
		return nil, err
	}
	return lib, nil
}

// FileNames returns the candidate file names of the native library name on the
// current platform, most specific first.
func FileNames(name string) []string {
	return fileNames(name, runtime.GOOS)
}

func fileNames(name, goos string) []string {
	var prefix, ext string
	switch goos {
	case "windows":
		ext = ".dll"
	case "darwin", "ios":
		prefix, ext = "lib", ".dylib"
	default:
		prefix, ext = "lib", ".so"
	}

	if strings.HasSuffix(strings.ToLower(name), ext) {
		return []string{name}
	}
	names := []string{name + ext}
	if prefix != "" && !strings.HasPrefix(name, prefix) {
		names = append(names, prefix+name+ext)
	}
	return append(names, name)
}

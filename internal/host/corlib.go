package host

import (
	"fmt"
	"strings"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
)

// CorlibVersion is the version of the built-in base library.
const CorlibVersion = "4.0.0.0"

type intrinsic struct {
	params int
	fn     func(r *Runtime, args []value) (value, error)
}

var intrinsics = map[string]intrinsic{
	"System.Runtime.Loader.AssemblyLoadContext::add_Resolving": {
		params: 1,
		fn: func(r *Runtime, args []value) (value, error) {
			return value{}, r.register(&r.resolving, args[0])
		},
	},
	"System.Runtime.Loader.AssemblyLoadContext::add_ResolvingUnmanagedDll": {
		params: 1,
		fn: func(r *Runtime, args []value) (value, error) {
			return value{}, r.register(&r.unmanaged, args[0])
		},
	},
	"System.Console::WriteLine": {
		params: 1,
		fn: func(r *Runtime, args []value) (value, error) {
			_, err := fmt.Fprintln(r.stdout, args[0].str)
			return value{}, err
		},
	},
}

func (r *Runtime) register(list *[]funcRef, v value) error {
	if v.fn == nil {
		return execError("handler is not a function pointer", "add_Resolving")
	}
	r.addHandler(list, *v.fn)
	return nil
}

func isBaseLibrary(scope string) bool {
	return strings.EqualFold(scope, domain.BaseLibrary)
}

// Corlib returns the metadata of the built-in base library.
func Corlib() *metadata.Module {
	return &metadata.Module{Name: domain.BaseLibrary, Version: CorlibVersion}
}

var _ ports.MetadataResolver = BaseResolver{}

// BaseResolver resolves the built-in base library.
type BaseResolver struct{}

// Resolve returns the base library metadata for its name.
func (BaseResolver) Resolve(name string) (*metadata.Module, error) {
	if !isBaseLibrary(name) {
		return nil, zerr.With(zerr.Wrap(domain.ErrMetadataNotFound, "not a host library"), "name", name)
	}
	return Corlib(), nil
}

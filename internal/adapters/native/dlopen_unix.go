//go:build darwin || freebsd || linux

package native

import (
	"errors"
	"sync"

	"github.com/ebitengine/purego"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/zerr"
)

type library struct {
	path   string
	handle uintptr

	mu    sync.Mutex
	funcs map[string]func() string
}

func open(path string) (*library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrNativeNotFound, err), "path", path)
	}
	return &library{path: path, handle: handle, funcs: make(map[string]func() string)}, nil
}

// Call invokes symbol as a C function taking no arguments and returning a C string.
func (l *library) Call(symbol string) (string, error) {
	l.mu.Lock()
	fn, ok := l.funcs[symbol]
	if !ok {
		addr, err := purego.Dlsym(l.handle, symbol)
		if err != nil {
			l.mu.Unlock()
			return "", zerr.With(zerr.With(zerr.Wrap(err, "symbol not found"), "symbol", symbol), "path", l.path)
		}
		purego.RegisterFunc(&fn, addr)
		l.funcs[symbol] = fn
	}
	l.mu.Unlock()
	return fn(), nil
}

func (l *library) Close() error {
	if err := purego.Dlclose(l.handle); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close library"), "path", l.path)
	}
	return nil
}

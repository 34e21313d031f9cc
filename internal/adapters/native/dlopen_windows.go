//go:build windows

package native

import (
	"errors"
	"sync"
	"syscall"
	"unsafe"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sys/windows"
)

type library struct {
	path   string
	handle windows.Handle

	mu    sync.Mutex
	procs map[string]uintptr
}

func open(path string) (*library, error) {
	handle, err := windows.LoadLibrary(path)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrNativeNotFound, err), "path", path)
	}
	return &library{path: path, handle: handle, procs: make(map[string]uintptr)}, nil
}

// Call invokes symbol as a C function taking no arguments and returning a C string.
func (l *library) Call(symbol string) (string, error) {
	l.mu.Lock()
	proc, ok := l.procs[symbol]
	if !ok {
		addr, err := windows.GetProcAddress(l.handle, symbol)
		if err != nil {
			l.mu.Unlock()
			return "", zerr.With(zerr.With(zerr.Wrap(err, "symbol not found"), "symbol", symbol), "path", l.path)
		}
		proc = addr
		l.procs[symbol] = proc
	}
	l.mu.Unlock()

	r1, _, _ := syscall.SyscallN(proc)
	if r1 == 0 {
		return "", nil
	}
	return windows.BytePtrToString((*byte)(unsafe.Pointer(r1))), nil //nolint:govet // r1 is a C string owned by the library
}

func (l *library) Close() error {
	if err := windows.FreeLibrary(l.handle); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close library"), "path", l.path)
	}
	return nil
}

//go:build !(darwin || freebsd || linux || windows)

package native

import (
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/zerr"
)

type library struct{}

func open(path string) (*library, error) {
	return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedPlatform, "cannot open native library"), "path", path)
}

func (l *library) Call(string) (string, error) {
	return "", domain.ErrUnsupportedPlatform
}

func (l *library) Close() error {
	return nil
}

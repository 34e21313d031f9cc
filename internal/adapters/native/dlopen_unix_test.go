//go:build darwin || freebsd || linux

package native_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/adapters/native"
	"go.trai.ch/weld/internal/core/domain"
)

func TestLoader_OpenMissing(t *testing.T) {
	lib, err := native.NewLoader().Open(filepath.Join(t.TempDir(), "libmissing.so"))
	require.Error(t, err)
	assert.Nil(t, lib)
	assert.True(t, errors.Is(err, domain.ErrNativeNotFound))
}

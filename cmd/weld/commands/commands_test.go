package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/cmd/weld/commands"
	"go.trai.ch/weld/internal/adapters/cas"
	"go.trai.ch/weld/internal/adapters/compress"
	"go.trai.ch/weld/internal/adapters/config"
	"go.trai.ch/weld/internal/adapters/fs"
	"go.trai.ch/weld/internal/adapters/modfile"
	"go.trai.ch/weld/internal/adapters/native"
	"go.trai.ch/weld/internal/adapters/telemetry"
	"go.trai.ch/weld/internal/app"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/metadata/metadatatest"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/weld/internal/core/ports/mocks"
	"go.trai.ch/weld/internal/engine/classify"
	"go.trai.ch/weld/internal/engine/embed"
	"go.trai.ch/weld/internal/engine/inject"
	"go.uber.org/mock/gomock"
)

func newCLI(t *testing.T, out *bytes.Buffer, args ...string) *commands.CLI {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	store := modfile.NewStore()
	hasher := fs.NewHasher()
	deflate := compress.NewDeflate()
	a := app.New(
		store,
		fs.NewResolver(),
		fs.NewWalker(),
		func(dir string) (ports.StagingStore, error) { return cas.NewStore(dir, hasher) },
		deflate,
		native.NewLoader(),
		telemetry.NewNoOpTracer(),
		logger,
		classify.New(store, native.NewInspector(), hasher, logger),
		embed.New(deflate, logger),
		inject.New(logger),
	)

	cli := commands.New(&app.Components{
		App:          a,
		Logger:       logger,
		ConfigLoader: config.NewLoader(logger),
		Tracer:       telemetry.NewNoOpTracer(),
	})
	cli.SetOut(out)
	cli.SetArgs(args)
	return cli
}

// project writes App.wmod and refs/LibA.wmod below a fresh directory.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	store := modfile.NewStore()

	libA := metadatatest.NewModule("LibA")
	metadatatest.AddReturn(libA, "LibA", "Greeter", "Hello", "hello from LibA")
	require.NoError(t, store.Write(filepath.Join(dir, "refs", "LibA.wmod"), libA))

	m := metadatatest.NewModule("App")
	metadatatest.AddForward(m, "App", "Program", "Main", metadata.MemberRef{
		Type: metadata.TypeRef{Scope: "LibA", Namespace: "LibA", Name: "Greeter"},
		Name: "Hello",
	})
	require.NoError(t, store.Write(filepath.Join(dir, "App.wmod"), m))
	return dir
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newCLI(t, &out, "version").Execute(context.Background()))
	assert.Contains(t, out.String(), "weld version")
}

func TestWeaveInspectExec(t *testing.T) {
	dir := project(t)
	module := filepath.Join(dir, "App.wmod")
	woven := filepath.Join(dir, "bin", "App.wmod")

	var out bytes.Buffer
	err := newCLI(t, &out,
		"weave", module,
		"--config", filepath.Join(dir, "weld.yaml"),
		"--reference-dir", filepath.Join(dir, "refs"),
		"--output", woven,
	).Execute(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "embedded  weld/managed/any/liba.wmod.deflate")
	assert.Contains(t, out.String(), "wrote "+woven)

	out.Reset()
	require.NoError(t, newCLI(t, &out, "inspect", woven).Execute(context.Background()))
	assert.Contains(t, out.String(), "module App")
	assert.Contains(t, out.String(), "resource liba.wmod kind=managed arch=any compressed=true")
	assert.Contains(t, out.String(), "loader v1 attached=true")

	require.NoError(t, os.RemoveAll(filepath.Join(dir, "refs")))

	out.Reset()
	require.NoError(t, newCLI(t, &out, "exec", woven, "App.Program::Main", "--temp-dir", t.TempDir()).Execute(context.Background()))
	assert.Equal(t, "hello from LibA\n", out.String())
}

func TestWeave_ConfigFile(t *testing.T) {
	dir := project(t)
	cfg := `version: "1"
module: App.wmod
references:
  - refs/*.wmod
disableCompression: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weld.yaml"), []byte(cfg), 0o600))

	var out bytes.Buffer
	err := newCLI(t, &out, "weave", "--config", filepath.Join(dir, "weld.yaml")).Execute(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "weld/managed/any/liba.wmod (")

	out.Reset()
	err = newCLI(t, &out, "weave", "--config", filepath.Join(dir, "weld.yaml")).Execute(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "unchanged")
	assert.Contains(t, out.String(), "is up to date")
}

func TestInspect_RequiresModule(t *testing.T) {
	var out bytes.Buffer
	err := newCLI(t, &out, "inspect").Execute(context.Background())
	require.Error(t, err)
}

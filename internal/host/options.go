package host

import (
	"io"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithArch sets the process architecture the runtime reports. Defaults to the
// architecture of the running binary.
func WithArch(arch domain.Arch) Option {
	return func(r *Runtime) {
		r.arch = arch
	}
}

// WithProbeDirs sets the directories searched for modules and native libraries
// before any resolving handler runs.
func WithProbeDirs(dirs ...string) Option {
	return func(r *Runtime) {
		r.probeDirs = append(r.probeDirs, dirs...)
	}
}

// WithNativeLoader sets the loader used to open native libraries.
func WithNativeLoader(loader ports.NativeLoader) Option {
	return func(r *Runtime) {
		r.natives = loader
	}
}

// WithBindings registers implementations for internal-call methods.
func WithBindings(bindings Bindings) Option {
	return func(r *Runtime) {
		for k, v := range bindings {
			r.bindings[k] = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithStdout sets the writer behind System.Console::WriteLine.
func WithStdout(w io.Writer) Option {
	return func(r *Runtime) {
		r.stdout = w
	}
}

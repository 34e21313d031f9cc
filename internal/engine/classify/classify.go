// Package classify sorts copy-local references into managed, native and mixed
// dependencies.
package classify

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Classifier reads reference files and classifies them.
type Classifier struct {
	store     ports.ModuleStore
	inspector ports.ArchInspector
	hasher    ports.Hasher
	logger    ports.Logger
}

// New creates a new Classifier.
func New(store ports.ModuleStore, inspector ports.ArchInspector, hasher ports.Hasher, logger ports.Logger) *Classifier {
	return &Classifier{
		store:     store,
		inspector: inspector,
		hasher:    hasher,
		logger:    logger,
	}
}

// Classify reads and classifies every path concurrently. The result keeps the
// order of paths; repeated paths are classified once. Any unreadable or corrupt
// reference fails the whole call.
func (c *Classifier) Classify(ctx context.Context, paths []string, hints domain.Hints) ([]domain.Dependency, error) {
	unique := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		unique = append(unique, clean)
	}

	deps := make([]domain.Dependency, len(unique))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, p := range unique {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dep, err := c.classifyFile(p, hints)
			if err != nil {
				return err
			}
			deps[i] = dep
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return deps, nil
}

func (c *Classifier) classifyFile(p string, hints domain.Hints) (domain.Dependency, error) {
	data, err := os.ReadFile(p) //nolint:gosec // References are provided by the user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Dependency{}, zerr.With(errors.Join(domain.ErrReferenceNotFound, err), "path", p)
		}
		return domain.Dependency{}, zerr.With(errors.Join(domain.ErrReferenceUnreadable, err), "path", p)
	}

	dep := domain.Dependency{
		Path:    p,
		Content: data,
		Hash:    c.hasher.Hash(data),
	}

	m, err := c.store.Decode(data)
	switch {
	case err == nil:
		c.classifyManaged(&dep, m, hints)
	case errors.Is(err, domain.ErrNotAModule):
		c.classifyNative(&dep, hints)
	default:
		return domain.Dependency{}, zerr.With(errors.Join(domain.ErrReferenceUnparseable, err), "path", p)
	}

	c.logger.Debug("classified reference",
		"path", p, "name", dep.Name, "kind", dep.Kind.String(), "arch", dep.Arch.String())
	return dep, nil
}

func (c *Classifier) classifyManaged(dep *domain.Dependency, m *metadata.Module, hints domain.Hints) {
	dep.Name = m.Name
	if dep.Name == "" {
		dep.Name = domain.CanonicalName(dep.Path)
	}

	hintArch, hinted := hints.Lookup(dep.Name)
	if !hinted && len(m.Native) == 0 {
		dep.Kind = domain.KindManaged
		dep.Arch = domain.ArchAny
		return
	}

	dep.Kind = domain.KindMixed
	if len(m.Native) > 0 {
		if arch, ok := c.inspector.Arch(m.Native); ok {
			dep.Arch = arch
			return
		}
	}
	if hintArch != domain.ArchAny {
		dep.Arch = hintArch
		return
	}
	dep.Arch = machineArch(m.Machine)
}

func (c *Classifier) classifyNative(dep *domain.Dependency, hints domain.Hints) {
	dep.Kind = domain.KindNative
	dep.Name = domain.CanonicalName(dep.Path)

	hintArch, hinted := hints.Lookup(dep.Name)
	arch, ok := c.inspector.Arch(dep.Content)
	switch {
	case ok:
		dep.Arch = arch
		if hinted && hintArch != domain.ArchAny && hintArch != arch {
			c.logger.Warn("hinted architecture differs from binary, using binary",
				"path", dep.Path, "hint", hintArch.String(), "binary", arch.String())
		}
	case hinted && hintArch != domain.ArchAny:
		dep.Arch = hintArch
	default:
		dep.Arch = domain.ArchAny
		c.logger.Warn("could not determine native architecture, embedding as any", "path", dep.Path)
	}
}

func machineArch(m metadata.Machine) domain.Arch {
	switch m {
	case metadata.MachineX86:
		return domain.ArchX86
	case metadata.MachineX64:
		return domain.ArchX64
	default:
		return domain.ArchAny
	}
}

// Filter keeps the dependencies whose lower-case canonical name matches one of
// include (all when include is empty) and none of exclude.
func Filter(deps []domain.Dependency, include, exclude []string) ([]domain.Dependency, error) {
	match := func(patterns []string, name string) (bool, error) {
		for _, pattern := range patterns {
			ok, err := path.Match(strings.ToLower(pattern), name)
			if err != nil {
				return false, zerr.With(errors.Join(domain.ErrInvalidPattern, err), "pattern", pattern)
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	out := make([]domain.Dependency, 0, len(deps))
	for _, dep := range deps {
		name := strings.ToLower(dep.Name)
		if len(include) > 0 {
			ok, err := match(include, name)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		excluded, err := match(exclude, name)
		if err != nil {
			return nil, err
		}
		if !excluded {
			out = append(out, dep)
		}
	}
	return out, nil
}

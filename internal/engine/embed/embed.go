// Package embed writes classified dependencies into a module as resources.
package embed

import (
	"bytes"
	"strings"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
)

// Options control how payloads are stored.
type Options struct {
	// Compress deflates every payload.
	Compress bool
	// Staging, when set, receives every payload before it is merged into the module.
	Staging ports.StagingStore
}

// Embedder turns dependencies into embedded resources.
type Embedder struct {
	compressor ports.Compressor
	logger     ports.Logger
}

// New creates a new Embedder.
func New(compressor ports.Compressor, logger ports.Logger) *Embedder {
	return &Embedder{compressor: compressor, logger: logger}
}

type pending struct {
	resource domain.EmbeddedResource
	data     []byte
	staged   string
}

// Embed adds one resource per dependency to m. Every dependency is validated and
// encoded before m is modified, so on error m is left untouched.
func (e *Embedder) Embed(m *metadata.Module, deps []domain.Dependency, opts Options) ([]domain.EmbeddedResource, error) {
	existing := existingKeys(m)

	plan := make([]pending, 0, len(deps))
	byKey := make(map[domain.ResourceKey]string, len(deps))

	for _, dep := range deps {
		if len(dep.Content) == 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrEmptyPayload, "cannot embed dependency"), "path", dep.Path)
		}

		key := dep.Key()
		if prev, ok := byKey[key]; ok {
			err := zerr.With(zerr.Wrap(domain.ErrDuplicateResource, "two dependencies share a resource key"), "key", key.String())
			return nil, zerr.With(zerr.With(err, "path", dep.Path), "previous", prev)
		}
		byKey[key] = dep.Path

		p, err := e.prepare(m, dep, existing, opts)
		if err != nil {
			return nil, err
		}
		plan = append(plan, p)
	}

	if opts.Staging != nil {
		if err := stage(opts.Staging, plan); err != nil {
			return nil, err
		}
	}

	out := make([]domain.EmbeddedResource, 0, len(plan))
	for _, p := range plan {
		if !p.resource.Reused {
			if err := m.AddResource(p.resource.Name, p.data); err != nil {
				return nil, err
			}
		}
		if p.staged != "" {
			if err := opts.Staging.Remove(p.staged); err != nil {
				e.logger.Warn("failed to remove staged resource", "resource", p.resource.Name, "error", err.Error())
			}
		}
		e.logger.Debug("embedded dependency",
			"resource", p.resource.Name, "size", p.resource.Size, "original", p.resource.OriginalSize, "reused", p.resource.Reused)
		out = append(out, p.resource)
	}
	return out, nil
}

func (e *Embedder) prepare(
	m *metadata.Module,
	dep domain.Dependency,
	existing map[domain.ResourceKey]string,
	opts Options,
) (pending, error) {
	key := dep.Key()
	data := dep.Content
	if opts.Compress {
		compressed, err := e.compressor.Compress(dep.Content)
		if err != nil {
			return pending{}, zerr.With(err, "path", dep.Path)
		}
		data = compressed
	}

	name := domain.ResourceName(key, dep.FileName(), opts.Compress)
	res := domain.EmbeddedResource{
		Name:         name,
		Key:          key,
		FileName:     strings.ToLower(dep.FileName()),
		Compressed:   opts.Compress,
		Size:         len(data),
		OriginalSize: len(dep.Content),
	}

	if prev, ok := existing[key]; ok && prev != name {
		err := zerr.With(zerr.Wrap(domain.ErrResourceConflict, "dependency is already embedded under another name"), "resource", prev)
		return pending{}, zerr.With(err, "path", dep.Path)
	}

	if r := m.Resource(name); r != nil {
		if !bytes.Equal(r.Data, data) {
			err := zerr.With(zerr.Wrap(domain.ErrResourceConflict, "cannot embed dependency"), "resource", name)
			return pending{}, zerr.With(err, "path", dep.Path)
		}
		res.Reused = true
	}

	return pending{resource: res, data: data}, nil
}

func stage(store ports.StagingStore, plan []pending) error {
	for i := range plan {
		if plan[i].resource.Reused {
			continue
		}
		key, err := store.Put(plan[i].data)
		if err != nil {
			return zerr.With(err, "resource", plan[i].resource.Name)
		}
		data, err := store.Get(key)
		if err != nil {
			return zerr.With(err, "resource", plan[i].resource.Name)
		}
		if !bytes.Equal(data, plan[i].data) {
			return zerr.With(zerr.Wrap(domain.ErrStagingFailed, "staged payload differs"), "resource", plan[i].resource.Name)
		}
		plan[i].data = data
		plan[i].staged = key
	}
	return nil
}

func existingKeys(m *metadata.Module) map[domain.ResourceKey]string {
	keys := make(map[domain.ResourceKey]string)
	for _, r := range m.Resources {
		parsed, ok := domain.ParseResourceName(r.Name)
		if !ok {
			continue
		}
		if _, seen := keys[parsed.Key]; !seen {
			keys[parsed.Key] = r.Name
		}
	}
	return keys
}

// Embedded lists the weld resources carried by m.
func Embedded(m *metadata.Module) []domain.EmbeddedResource {
	var out []domain.EmbeddedResource
	for _, r := range m.Resources {
		parsed, ok := domain.ParseResourceName(r.Name)
		if !ok {
			continue
		}
		parsed.Size = len(r.Data)
		out = append(out, parsed)
	}
	return out
}

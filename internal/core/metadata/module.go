package metadata

import (
	"bytes"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/zerr"
)

// FindType returns the type with the given namespace and name, or nil.
func (m *Module) FindType(namespace, name string) *Type {
	for _, t := range m.Types {
		if t.Namespace == namespace && t.Name == name {
			return t
		}
	}
	return nil
}

// ModuleType returns the <Module> pseudo type, creating it first in the type list if missing.
func (m *Module) ModuleType() *Type {
	if t := m.FindType("", ModuleTypeName); t != nil {
		return t
	}
	t := &Type{Name: ModuleTypeName}
	m.Types = slices.Insert(m.Types, 0, t)
	return t
}

// Initializer returns the module initializer, creating an empty one if missing.
func (m *Module) Initializer() *Method {
	mt := m.ModuleType()
	if init := mt.Method(InitializerName); init != nil {
		return init
	}
	init := &Method{
		Name:  InitializerName,
		Flags: MethodStatic | MethodSpecialName,
		Body:  []Instruction{{Op: OpRet}},
	}
	mt.Methods = append(mt.Methods, init)
	return init
}

// AddType appends a type definition.
func (m *Module) AddType(t *Type) {
	m.Types = append(m.Types, t)
}

// RemoveType removes t from the module and reports whether it was present.
func (m *Module) RemoveType(t *Type) bool {
	i := slices.Index(m.Types, t)
	if i < 0 {
		return false
	}
	m.Types = slices.Delete(m.Types, i, i+1)
	return true
}

// Reference returns the reference with the given name, or nil. Names compare case-insensitively.
func (m *Module) Reference(name string) *Reference {
	for _, r := range m.References {
		if strings.EqualFold(r.Name, name) {
			return r
		}
	}
	return nil
}

// ReferenceCount returns how many references carry the given name.
func (m *Module) ReferenceCount(name string) int {
	n := 0
	for _, r := range m.References {
		if strings.EqualFold(r.Name, name) {
			n++
		}
	}
	return n
}

// ImportReference returns the existing reference named name, or adds one.
// An existing reference is reused even when its version differs.
func (m *Module) ImportReference(name, version string) *Reference {
	if r := m.Reference(name); r != nil {
		return r
	}
	r := &Reference{Name: name, Version: version}
	m.References = append(m.References, r)
	return r
}

// DedupeReferences merges references sharing a name into the first one, keeping the
// highest version. It returns the number of removed entries.
func (m *Module) DedupeReferences() int {
	kept := m.References[:0]
	removed := 0
	for _, r := range m.References {
		idx := slices.IndexFunc(kept, func(k *Reference) bool { return strings.EqualFold(k.Name, r.Name) })
		if idx < 0 {
			kept = append(kept, r)
			continue
		}
		if CompareVersions(r.Version, kept[idx].Version) > 0 {
			kept[idx].Version = r.Version
		}
		removed++
	}
	clear(m.References[len(kept):])
	m.References = kept
	return removed
}

// Resource returns the resource with the given name, or nil.
func (m *Module) Resource(name string) *Resource {
	for _, r := range m.Resources {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// AddResource embeds data under name. It never overwrites an existing resource.
func (m *Module) AddResource(name string, data []byte) error {
	if existing := m.Resource(name); existing != nil {
		if bytes.Equal(existing.Data, data) {
			return nil
		}
		return zerr.With(zerr.Wrap(domain.ErrResourceConflict, "cannot embed resource"), "resource", name)
	}
	m.Resources = append(m.Resources, &Resource{Name: name, Data: data})
	return nil
}

// CompareVersions compares dotted numeric versions. Missing or non-numeric
// components count as zero.
func CompareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := range max(len(as), len(bs)) {
		x, y := versionPart(as, i), versionPart(bs, i)
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}

func versionPart(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.Atoi(parts[i])
	if err != nil {
		return 0
	}
	return n
}

// Clone returns a deep copy of m, so a pipeline can mutate the copy and discard it on failure.
func (m *Module) Clone() *Module {
	out := &Module{
		Name:    m.Name,
		Version: m.Version,
		Machine: m.Machine,
		Native:  bytes.Clone(m.Native),
	}
	for _, r := range m.References {
		ref := *r
		out.References = append(out.References, &ref)
	}
	for _, t := range m.Types {
		out.Types = append(out.Types, t.clone())
	}
	for _, r := range m.Resources {
		out.Resources = append(out.Resources, &Resource{Name: r.Name, Data: bytes.Clone(r.Data)})
	}
	return out
}

func (t *Type) clone() *Type {
	out := &Type{Namespace: t.Namespace, Name: t.Name, Flags: t.Flags}
	for _, a := range t.Attributes {
		out.Attributes = append(out.Attributes, &Attribute{Type: a.Type, Args: slices.Clone(a.Args)})
	}
	for _, meth := range t.Methods {
		c := &Method{Name: meth.Name, Flags: meth.Flags, Params: meth.Params}
		for _, in := range meth.Body {
			if in.Member != nil {
				member := *in.Member
				in.Member = &member
			}
			c.Body = append(c.Body, in)
		}
		out.Methods = append(out.Methods, c)
	}
	return out
}

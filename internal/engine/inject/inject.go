// Package inject adds the loader-hook type to a module and calls it from the
// module initializer.
package inject

import (
	"errors"
	"reflect"
	"slices"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	loaderContextType = "System.Runtime.Loader.AssemblyLoadContext"
	addResolving      = "add_Resolving"
	addResolvingNativ = "add_ResolvingUnmanagedDll"

	compilerServicesNs = "System.Runtime.CompilerServices"
	compilerGenerated  = "CompilerGeneratedAttribute"
	codeDomNs          = "System.CodeDom.Compiler"
	generatedCode      = "GeneratedCodeAttribute"
)

// Options control the generated loader.
type Options struct {
	// Preload lists native libraries the loader extracts and loads eagerly, in order.
	Preload []string
	// TemporaryAssemblies records that managed dependencies are loaded from
	// extracted files.
	TemporaryAssemblies bool
	// Resolver locates the base library when the module does not reference it yet.
	Resolver ports.MetadataResolver
}

// Result reports what Inject changed.
type Result struct {
	// Added is set when the canonical loader type was (re)added.
	Added bool
	// Removed lists stale weld-generated types that were dropped.
	Removed []string
	// RemovedCalls counts stale Attach calls stripped from the module initializer.
	RemovedCalls int
	// MergedReferences counts duplicate references merged away.
	MergedReferences int
	// ImportedBase is set when the base library reference had to be added.
	ImportedBase bool
}

// Changed reports whether the module was modified.
func (r Result) Changed() bool {
	return r.Added || len(r.Removed) > 0 || r.RemovedCalls > 0 || r.MergedReferences > 0 || r.ImportedBase
}

// Injector generates and installs the loader hook.
type Injector struct {
	logger ports.Logger
}

// New creates a new Injector.
func New(logger ports.Logger) *Injector {
	return &Injector{logger: logger}
}

// Inject makes sure m carries exactly one canonical loader type and that its
// initializer attaches it first and exactly once. Running it twice is a no-op.
func (i *Injector) Inject(m *metadata.Module, opts Options) (Result, error) {
	res := Result{MergedReferences: m.DedupeReferences()}

	base, imported, err := baseReference(m, opts.Resolver)
	if err != nil {
		return Result{}, err
	}
	res.ImportedBase = imported

	canonical := Loader(base.Name, opts.Preload, opts.TemporaryAssemblies)
	existing := m.FindType(domain.LoaderNamespace, domain.LoaderTypeName)
	keep := existing != nil && reflect.DeepEqual(existing, canonical)

	stale := map[string]bool{canonical.FullName(): true}
	for _, t := range slices.Clone(m.Types) {
		if !IsGenerated(t) && t != existing {
			continue
		}
		stale[t.FullName()] = true
		if keep && t == existing {
			continue
		}
		m.RemoveType(t)
		if t != existing {
			res.Removed = append(res.Removed, t.FullName())
		}
	}

	if !keep {
		m.AddType(canonical)
		res.Added = true
	}

	res.RemovedCalls = rewriteInitializer(m, stale)

	i.logger.Debug("injected loader hook",
		"module", m.Name, "added", res.Added, "removed", len(res.Removed), "merged_references", res.MergedReferences)
	return res, nil
}

func baseReference(m *metadata.Module, resolver ports.MetadataResolver) (*metadata.Reference, bool, error) {
	if ref := m.Reference(domain.BaseLibrary); ref != nil {
		return ref, false, nil
	}
	if resolver == nil {
		return nil, false, zerr.With(zerr.Wrap(domain.ErrBaseLibraryUnresolved, "no metadata resolver"), "module", m.Name)
	}
	lib, err := resolver.Resolve(domain.BaseLibrary)
	if err != nil {
		return nil, false, zerr.With(errors.Join(domain.ErrBaseLibraryUnresolved, err), "module", m.Name)
	}
	return m.ImportReference(lib.Name, lib.Version), true, nil
}

// rewriteInitializer strips calls to Attach on any loader type in stale and
// prepends a single call to the canonical loader. It returns the number of
// stripped calls that targeted a type other than the canonical loader.
func rewriteInitializer(m *metadata.Module, stale map[string]bool) int {
	init := m.Initializer()
	canonical := metadata.FullName(domain.LoaderNamespace, domain.LoaderTypeName)

	removed := 0
	body := make([]metadata.Instruction, 0, len(init.Body)+1)
	body = append(body, AttachCall())
	for _, ins := range init.Body {
		if ins.Op == metadata.OpCall && ins.Member != nil && ins.Member.Type.Scope == "" &&
			ins.Member.Name == domain.AttachMethod && stale[ins.Member.Type.FullName()] {
			if ins.Member.Type.FullName() != canonical {
				removed++
			}
			continue
		}
		body = append(body, ins)
	}
	init.Body = body
	return removed
}

// AttachCall returns the instruction the module initializer uses to attach the loader.
func AttachCall() metadata.Instruction {
	return metadata.Instruction{Op: metadata.OpCall, Member: loaderMember(domain.AttachMethod)}
}

// IsGenerated reports whether t carries the weld generated-code marker.
func IsGenerated(t *metadata.Type) bool {
	a := t.Attribute(codeDomNs, generatedCode)
	return a != nil && len(a.Args) > 0 && a.Args[0] == domain.GeneratorName
}

// HookVersion returns the hook version recorded on t, or "" when t is not generated by weld.
func HookVersion(t *metadata.Type) string {
	if !IsGenerated(t) {
		return ""
	}
	a := t.Attribute(codeDomNs, generatedCode)
	if len(a.Args) < 2 {
		return ""
	}
	return a.Args[1]
}

// Loader builds the canonical loader type. base is the name under which the
// module references the base library.
func Loader(base string, preload []string, temporaryAssemblies bool) *metadata.Type {
	var attach []metadata.Instruction
	for _, name := range preload {
		attach = append(attach,
			metadata.Instruction{Op: metadata.OpLdStr, Str: name},
			metadata.Instruction{Op: metadata.OpCall, Member: loaderMember(domain.PreloadMethod)},
		)
	}
	attach = append(attach,
		metadata.Instruction{Op: metadata.OpLdFtn, Member: loaderMember(domain.ResolveAssemblyMethod)},
		metadata.Instruction{Op: metadata.OpCall, Member: contextMember(base, addResolving)},
		metadata.Instruction{Op: metadata.OpLdFtn, Member: loaderMember(domain.ResolveUnmanagedMethod)},
		metadata.Instruction{Op: metadata.OpCall, Member: contextMember(base, addResolvingNativ)},
		metadata.Instruction{Op: metadata.OpRet},
	)

	internal := func(name string) *metadata.Method {
		return &metadata.Method{
			Name:   name,
			Flags:  metadata.MethodStatic | metadata.MethodInternalCall,
			Params: 1,
		}
	}

	attrs := []*metadata.Attribute{
		{Type: metadata.TypeRef{Scope: base, Namespace: compilerServicesNs, Name: compilerGenerated}},
		{
			Type: metadata.TypeRef{Scope: base, Namespace: codeDomNs, Name: generatedCode},
			Args: []string{domain.GeneratorName, domain.HookVersion},
		},
	}
	if temporaryAssemblies {
		attrs = append(attrs, &metadata.Attribute{
			Type: metadata.TypeRef{Scope: base, Namespace: domain.OptionAttributeNamespace, Name: domain.OptionAttributeName},
			Args: []string{domain.TemporaryAssembliesOption, "true"},
		})
	}

	return &metadata.Type{
		Namespace:  domain.LoaderNamespace,
		Name:       domain.LoaderTypeName,
		Flags:      metadata.TypeSealed | metadata.TypeAbstract,
		Attributes: attrs,
		Methods: []*metadata.Method{
			{Name: domain.AttachMethod, Flags: metadata.MethodStatic, Body: attach},
			internal(domain.ResolveAssemblyMethod),
			internal(domain.ResolveUnmanagedMethod),
			internal(domain.PreloadMethod),
		},
	}
}

func loaderMember(method string) *metadata.MemberRef {
	return &metadata.MemberRef{
		Type: metadata.TypeRef{Namespace: domain.LoaderNamespace, Name: domain.LoaderTypeName},
		Name: method,
	}
}

func contextMember(base, method string) *metadata.MemberRef {
	ns, name := metadata.SplitFullName(loaderContextType)
	return &metadata.MemberRef{
		Type: metadata.TypeRef{Scope: base, Namespace: ns, Name: name},
		Name: method,
	}
}

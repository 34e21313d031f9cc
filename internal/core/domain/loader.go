package domain

// Names of the loader-hook type injected into processed modules. The host
// binds the internal calls by "Namespace.Type::Method".
const (
	LoaderNamespace = "Weld"
	LoaderTypeName  = "EmbeddedLoader"

	AttachMethod           = "Attach"
	ResolveAssemblyMethod  = "ResolveAssembly"
	ResolveUnmanagedMethod = "ResolveUnmanaged"
	PreloadMethod          = "Preload"

	// HookVersion is recorded in the generated-code marker. Bump it whenever
	// the shape of the generated type changes.
	HookVersion = "1"
	// GeneratorName is recorded in the generated-code marker.
	GeneratorName = "weld"

	// OptionAttributeNamespace and OptionAttributeName name the base library
	// attribute that carries loader options as key/value pairs.
	OptionAttributeNamespace = "System.Reflection"
	OptionAttributeName      = "AssemblyMetadataAttribute"
	// TemporaryAssembliesOption makes the loader extract managed dependencies
	// to files and load them from disk instead of from memory.
	TemporaryAssembliesOption = "weld.createTemporaryAssemblies"
)

// LoaderBinding returns the binding key of a loader-hook method.
func LoaderBinding(method string) string {
	return LoaderNamespace + "." + LoaderTypeName + "::" + method
}

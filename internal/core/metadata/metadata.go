// Package metadata models a managed module as an editable object graph.
//
// All mutations during processing happen on this graph; the modfile adapter
// serializes it once at the end.
package metadata

import "strings"

// ModuleTypeName is the pseudo type that owns module-level members.
const ModuleTypeName = "<Module>"

// InitializerName is the static constructor run when a type (or the module) is initialized.
const InitializerName = ".cctor"

// Module is a managed module.
type Module struct {
	Name       string
	Version    string
	Machine    Machine
	References []*Reference
	Types      []*Type
	Resources  []*Resource
	// Native holds the native image of a mixed-mode module.
	Native []byte
}

// Machine records the architecture a module was compiled for.
type Machine uint8

const (
	// MachineAny is architecture neutral code.
	MachineAny Machine = iota
	// MachineX86 requires a 32-bit process.
	MachineX86
	// MachineX64 requires a 64-bit process.
	MachineX64
)

// Reference names another module the code refers to.
type Reference struct {
	Name    string
	Version string
}

// TypeRef points at a type. An empty Scope means the current module.
type TypeRef struct {
	Scope     string
	Namespace string
	Name      string
}

// FullName returns the namespace-qualified type name.
func (r TypeRef) FullName() string {
	return FullName(r.Namespace, r.Name)
}

// String renders the reference as scope::Namespace.Name.
func (r TypeRef) String() string {
	if r.Scope == "" {
		return r.FullName()
	}
	return r.Scope + "::" + r.FullName()
}

// MemberRef points at a method of a type.
type MemberRef struct {
	Type TypeRef
	Name string
}

// String renders the reference as scope::Namespace.Name::Member.
func (r MemberRef) String() string {
	return r.Type.String() + "::" + r.Name
}

// TypeFlags are type attributes.
type TypeFlags uint32

const (
	// TypePublic makes the type visible outside the module.
	TypePublic TypeFlags = 1 << iota
	// TypeSealed forbids derivation.
	TypeSealed
	// TypeAbstract marks a type that cannot be instantiated.
	TypeAbstract
	// TypeBeforeFieldInit allows lazy type initialization.
	TypeBeforeFieldInit
)

// Type is a type definition.
type Type struct {
	Namespace  string
	Name       string
	Flags      TypeFlags
	Attributes []*Attribute
	Methods    []*Method
}

// FullName returns the namespace-qualified type name.
func (t *Type) FullName() string {
	return FullName(t.Namespace, t.Name)
}

// Method returns the method with the given name, or nil.
func (t *Type) Method(name string) *Method {
	for _, m := range t.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// HasAttribute reports whether the type carries an attribute of the given type.
func (t *Type) HasAttribute(namespace, name string) bool {
	return t.Attribute(namespace, name) != nil
}

// Attribute returns the first attribute of the given type, or nil.
func (t *Type) Attribute(namespace, name string) *Attribute {
	for _, a := range t.Attributes {
		if a.Type.Namespace == namespace && a.Type.Name == name {
			return a
		}
	}
	return nil
}

// Attribute is a custom attribute applied to a type.
type Attribute struct {
	Type TypeRef
	Args []string
}

// MethodFlags are method attributes.
type MethodFlags uint32

const (
	// MethodStatic marks a method without instance.
	MethodStatic MethodFlags = 1 << iota
	// MethodPublic makes the method visible outside the module.
	MethodPublic
	// MethodSpecialName marks runtime-recognized methods such as .cctor.
	MethodSpecialName
	// MethodInternalCall marks a method implemented by the host runtime.
	MethodInternalCall
)

// Method is a method definition.
type Method struct {
	Name   string
	Flags  MethodFlags
	Params int
	Body   []Instruction
}

// IsInternalCall reports whether the host implements the method.
func (m *Method) IsInternalCall() bool {
	return m.Flags&MethodInternalCall != 0
}

// Op is an instruction opcode.
type Op uint8

const (
	// OpNop does nothing.
	OpNop Op = iota
	// OpLdStr pushes Str.
	OpLdStr
	// OpLdFtn pushes a pointer to Member.
	OpLdFtn
	// OpCall calls Member, popping its parameters and pushing its result.
	OpCall
	// OpCallNative loads the native library Str and calls the symbol Member.Name.
	OpCallNative
	// OpRet returns the top of the stack, if any.
	OpRet
)

var opNames = [...]string{"nop", "ldstr", "ldftn", "call", "callnative", "ret"}

// String returns the mnemonic.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "invalid"
}

// Instruction is a single instruction of a method body.
type Instruction struct {
	Op     Op
	Str    string
	Member *MemberRef
}

// Resource is a named blob embedded in a module.
type Resource struct {
	Name string
	Data []byte
}

// FullName joins a namespace and a type name.
func FullName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// SplitFullName splits Namespace.Name at the last dot.
func SplitFullName(fullName string) (namespace, name string) {
	i := strings.LastIndexByte(fullName, '.')
	if i < 0 {
		return "", fullName
	}
	return fullName[:i], fullName[i+1:]
}

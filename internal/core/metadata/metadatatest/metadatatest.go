// Package metadatatest builds small modules for tests.
package metadatatest

import (
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
)

// CorlibVersion is the base library version used by NewModule.
const CorlibVersion = "4.0.0.0"

// NewModule returns a module named name that references corlib and has an empty initializer.
func NewModule(name string) *metadata.Module {
	m := &metadata.Module{
		Name:       name,
		Version:    "1.0.0.0",
		References: []*metadata.Reference{{Name: domain.BaseLibrary, Version: CorlibVersion}},
	}
	m.Initializer()
	return m
}

// Corlib returns a module describing the base runtime library.
func Corlib() *metadata.Module {
	return &metadata.Module{Name: domain.BaseLibrary, Version: CorlibVersion}
}

// AddReturn adds a public static method returning value to the type namespace.typeName,
// creating the type when needed.
func AddReturn(m *metadata.Module, namespace, typeName, method, value string) *metadata.Method {
	meth := &metadata.Method{
		Name:  method,
		Flags: metadata.MethodStatic | metadata.MethodPublic,
		Body: []metadata.Instruction{
			{Op: metadata.OpLdStr, Str: value},
			{Op: metadata.OpRet},
		},
	}
	t := typ(m, namespace, typeName)
	t.Methods = append(t.Methods, meth)
	return meth
}

// AddForward adds a public static method that returns the result of calling target.
// When target lives in another module, a reference to it is imported.
func AddForward(m *metadata.Module, namespace, typeName, method string, target metadata.MemberRef) *metadata.Method {
	if target.Type.Scope != "" {
		m.ImportReference(target.Type.Scope, "1.0.0.0")
	}
	meth := &metadata.Method{
		Name:  method,
		Flags: metadata.MethodStatic | metadata.MethodPublic,
		Body: []metadata.Instruction{
			{Op: metadata.OpCall, Member: &target},
			{Op: metadata.OpRet},
		},
	}
	t := typ(m, namespace, typeName)
	t.Methods = append(t.Methods, meth)
	return meth
}

// AddNativeCall adds a public static method that calls symbol in the native library lib
// and returns whatever the native loader yields.
func AddNativeCall(m *metadata.Module, namespace, typeName, method, lib, symbol string) *metadata.Method {
	meth := &metadata.Method{
		Name:  method,
		Flags: metadata.MethodStatic | metadata.MethodPublic,
		Body: []metadata.Instruction{
			{Op: metadata.OpCallNative, Str: lib, Member: &metadata.MemberRef{Name: symbol}},
			{Op: metadata.OpRet},
		},
	}
	t := typ(m, namespace, typeName)
	t.Methods = append(t.Methods, meth)
	return meth
}

func typ(m *metadata.Module, namespace, name string) *metadata.Type {
	if t := m.FindType(namespace, name); t != nil {
		return t
	}
	t := &metadata.Type{Namespace: namespace, Name: name, Flags: metadata.TypePublic}
	m.AddType(t)
	return t
}

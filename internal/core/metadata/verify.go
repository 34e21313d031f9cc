package metadata

import (
	"errors"
	"strings"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/zerr"
)

// Verify checks that m is structurally valid. It reports every violation,
// joined with domain.ErrModuleInvalid.
func Verify(m *Module) error {
	var errs []error
	fail := func(msg string, kv ...any) {
		err := zerr.New(msg)
		for i := 0; i+1 < len(kv); i += 2 {
			err = zerr.With(err, kv[i].(string), kv[i+1])
		}
		errs = append(errs, err)
	}

	if m.Name == "" {
		fail("module has no name")
	}

	refs := make(map[string]bool, len(m.References))
	for _, r := range m.References {
		key := strings.ToLower(r.Name)
		if refs[key] {
			fail("duplicate module reference", "reference", r.Name)
		}
		refs[key] = true
	}

	resources := make(map[string]bool, len(m.Resources))
	for _, r := range m.Resources {
		if resources[r.Name] {
			fail("duplicate resource", "resource", r.Name)
		}
		resources[r.Name] = true
	}

	types := make(map[string]*Type, len(m.Types))
	for _, t := range m.Types {
		if _, ok := types[t.FullName()]; ok {
			fail("duplicate type", "type", t.FullName())
		}
		types[t.FullName()] = t
	}

	checkScope := func(ref TypeRef, where string) {
		if ref.Scope != "" && !refs[strings.ToLower(ref.Scope)] {
			fail("undeclared module reference", "reference", ref.Scope, "at", where)
		}
	}

	for _, t := range m.Types {
		for _, a := range t.Attributes {
			checkScope(a.Type, t.FullName())
		}
		for _, meth := range t.Methods {
			where := t.FullName() + "::" + meth.Name
			verifyBody(meth, where, types, checkScope, fail)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{domain.ErrModuleInvalid}, errs...)...)
}

func verifyBody(
	meth *Method,
	where string,
	types map[string]*Type,
	checkScope func(TypeRef, string),
	fail func(string, ...any),
) {
	if meth.IsInternalCall() {
		if len(meth.Body) > 0 {
			fail("internal call has a body", "method", where)
		}
		return
	}
	if len(meth.Body) == 0 || meth.Body[len(meth.Body)-1].Op != OpRet {
		fail("method body does not end in ret", "method", where)
	}

	for i, ins := range meth.Body {
		switch ins.Op {
		case OpCall, OpLdFtn:
			if ins.Member == nil {
				fail("missing member operand", "method", where, "offset", i)
				continue
			}
			checkScope(ins.Member.Type, where)
			if ins.Member.Type.Scope != "" {
				continue
			}
			target, ok := types[ins.Member.Type.FullName()]
			if !ok || target.Method(ins.Member.Name) == nil {
				fail("unresolved member", "member", ins.Member.String(), "method", where)
			}
		case OpCallNative:
			if ins.Str == "" || ins.Member == nil || ins.Member.Name == "" {
				fail("incomplete native call", "method", where, "offset", i)
			}
		case OpNop, OpLdStr, OpRet:
		default:
			fail("invalid opcode", "method", where, "offset", i)
		}
	}
}

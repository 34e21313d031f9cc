package host

import (
	"context"
	"strings"

	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/zerr"
)

// maxDepth bounds the call depth of interpreted code.
const maxDepth = 256

// value is a stack slot: a string or a function pointer.
type value struct {
	str string
	fn  *funcRef
}

// funcRef is a function pointer produced by ldftn.
type funcRef struct {
	asm    *Assembly
	member metadata.MemberRef
}

func execError(msg, where string) error {
	return zerr.With(zerr.Wrap(domain.ErrExecutionFailed, msg), "method", where)
}

func (r *Runtime) exec(ctx context.Context, asm *Assembly, meth *metadata.Method, args []value, depth int) (value, error) {
	if depth > maxDepth {
		return value{}, execError("call depth exceeded", meth.Name)
	}
	if err := ctx.Err(); err != nil {
		return value{}, err
	}

	if meth.IsInternalCall() {
		return r.internalCall(ctx, asm, meth, args)
	}

	var stack []value
	pop := func(n int, where string) ([]value, error) {
		if len(stack) < n {
			return nil, execError("stack underflow", where)
		}
		popped := append([]value(nil), stack[len(stack)-n:]...)
		stack = stack[:len(stack)-n]
		return popped, nil
	}

	for _, ins := range meth.Body {
		switch ins.Op {
		case metadata.OpNop:
		case metadata.OpLdStr:
			stack = append(stack, value{str: ins.Str})
		case metadata.OpLdFtn:
			stack = append(stack, value{fn: &funcRef{asm: asm, member: *ins.Member}})
		case metadata.OpCall:
			v, err := r.call(ctx, asm, *ins.Member, pop, depth)
			if err != nil {
				return value{}, err
			}
			stack = append(stack, v)
		case metadata.OpCallNative:
			lib, err := r.LoadNative(ctx, ins.Str)
			if err != nil {
				return value{}, err
			}
			out, err := lib.Call(ins.Member.Name)
			if err != nil {
				return value{}, zerr.With(err, "symbol", ins.Member.Name)
			}
			stack = append(stack, value{str: out})
		case metadata.OpRet:
			if len(stack) == 0 {
				return value{}, nil
			}
			return stack[len(stack)-1], nil
		default:
			return value{}, execError("invalid opcode "+ins.Op.String(), meth.Name)
		}
	}
	return value{}, nil
}

func (r *Runtime) call(
	ctx context.Context,
	asm *Assembly,
	member metadata.MemberRef,
	pop func(int, string) ([]value, error),
	depth int,
) (value, error) {
	if isBaseLibrary(member.Type.Scope) {
		in, ok := intrinsics[member.Type.FullName()+"::"+member.Name]
		if !ok {
			return value{}, zerr.With(zerr.Wrap(domain.ErrMethodNotFound, "unknown base library method"), "method", member.String())
		}
		args, err := pop(in.params, member.String())
		if err != nil {
			return value{}, err
		}
		return in.fn(r, args)
	}

	target, meth, err := r.resolveMethod(ctx, asm, member)
	if err != nil {
		return value{}, err
	}
	args, err := pop(meth.Params, member.String())
	if err != nil {
		return value{}, err
	}
	return r.exec(ctx, target, meth, args, depth+1)
}

// callRef invokes a function pointer with a single string argument.
func (r *Runtime) callRef(ctx context.Context, ref funcRef, arg string) (string, error) {
	target, meth, err := r.resolveMethod(ctx, ref.asm, ref.member)
	if err != nil {
		return "", err
	}
	v, err := r.exec(ctx, target, meth, []value{{str: arg}}, 0)
	if err != nil {
		return "", err
	}
	return v.str, nil
}

// resolveMethod finds the method member points at, loading its module when it
// lives outside asm.
func (r *Runtime) resolveMethod(ctx context.Context, asm *Assembly, member metadata.MemberRef) (*Assembly, *metadata.Method, error) {
	target := asm
	if member.Type.Scope != "" && !strings.EqualFold(member.Type.Scope, asm.Name()) {
		loaded, err := r.Load(ctx, member.Type.Scope)
		if err != nil {
			return nil, nil, err
		}
		target = loaded
	}

	t := target.Module.FindType(member.Type.Namespace, member.Type.Name)
	if t == nil {
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrMethodNotFound, "type not found"), "method", member.String())
	}
	meth := t.Method(member.Name)
	if meth == nil {
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrMethodNotFound, "method not found"), "method", member.String())
	}
	return target, meth, nil
}

func (r *Runtime) internalCall(ctx context.Context, asm *Assembly, meth *metadata.Method, args []value) (value, error) {
	var owner string
	for _, t := range asm.Module.Types {
		for _, m := range t.Methods {
			if m == meth {
				owner = t.FullName()
			}
		}
	}
	key := owner + "::" + meth.Name

	r.mu.RLock()
	b, ok := r.bindings[key]
	r.mu.RUnlock()
	if !ok {
		return value{}, execError("unbound internal call", key)
	}

	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = a.str
	}
	out, err := b(ctx, Call{Runtime: r, Assembly: asm, Args: strs})
	if err != nil {
		return value{}, zerr.With(err, "method", key)
	}
	return value{str: out}, nil
}

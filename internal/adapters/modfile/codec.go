// Package modfile reads and writes managed modules in the .wmod binary format.
//
// A file is the magic "WMOD", one format version byte, a protobuf wire-format
// payload and the little-endian xxhash64 of that payload.
package modfile

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/zerr"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	magic         = "WMOD"
	formatVersion = 1
	headerSize    = len(magic) + 1
	checksumSize  = 8
)

// Field numbers of the wire payload. Never renumber.
const (
	fModuleName      protowire.Number = 1
	fModuleVersion   protowire.Number = 2
	fModuleMachine   protowire.Number = 3
	fModuleReference protowire.Number = 4
	fModuleType      protowire.Number = 5
	fModuleResource  protowire.Number = 6
	fModuleNative    protowire.Number = 7

	fReferenceName    protowire.Number = 1
	fReferenceVersion protowire.Number = 2

	fTypeNamespace protowire.Number = 1
	fTypeName      protowire.Number = 2
	fTypeFlags     protowire.Number = 3
	fTypeAttribute protowire.Number = 4
	fTypeMethod    protowire.Number = 5

	fAttributeType protowire.Number = 1
	fAttributeArg  protowire.Number = 2

	fTypeRefScope     protowire.Number = 1
	fTypeRefNamespace protowire.Number = 2
	fTypeRefName      protowire.Number = 3

	fMethodName   protowire.Number = 1
	fMethodFlags  protowire.Number = 2
	fMethodParams protowire.Number = 3
	fMethodInstr  protowire.Number = 4

	fInstrOp     protowire.Number = 1
	fInstrStr    protowire.Number = 2
	fInstrMember protowire.Number = 3

	fMemberType protowire.Number = 1
	fMemberName protowire.Number = 2

	fResourceName protowire.Number = 1
	fResourceData protowire.Number = 2
)

// IsModule reports whether data starts with the module magic.
func IsModule(data []byte) bool {
	return len(data) >= len(magic) && string(data[:len(magic)]) == magic
}

// Encode serializes m.
func Encode(m *metadata.Module) ([]byte, error) {
	if m == nil {
		return nil, zerr.New("cannot encode a nil module")
	}

	payload := appendModule(nil, m)

	out := make([]byte, 0, headerSize+len(payload)+checksumSize)
	out = append(out, magic...)
	out = append(out, formatVersion)
	out = append(out, payload...)
	out = binary.LittleEndian.AppendUint64(out, xxhash.Sum64(payload))
	return out, nil
}

// Decode parses a module. It fails with domain.ErrNotAModule when data does not
// carry the module magic and with domain.ErrModuleCorrupt for anything else.
func Decode(data []byte) (*metadata.Module, error) {
	if !IsModule(data) {
		return nil, zerr.Wrap(domain.ErrNotAModule, "missing module magic")
	}
	if len(data) < headerSize+checksumSize {
		return nil, zerr.With(zerr.Wrap(domain.ErrModuleCorrupt, "module is truncated"), "size", len(data))
	}
	if v := data[len(magic)]; v != formatVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrModuleCorrupt, "unsupported format version"), "version", v)
	}

	payload := data[headerSize : len(data)-checksumSize]
	want := binary.LittleEndian.Uint64(data[len(data)-checksumSize:])
	if got := xxhash.Sum64(payload); got != want {
		return nil, zerr.Wrap(domain.ErrModuleCorrupt, "checksum mismatch")
	}

	m, err := decodeModule(payload)
	if err != nil {
		return nil, errors.Join(domain.ErrModuleCorrupt, err)
	}
	return m, nil
}

func appendModule(b []byte, m *metadata.Module) []byte {
	b = appendString(b, fModuleName, m.Name)
	b = appendString(b, fModuleVersion, m.Version)
	b = appendVarint(b, fModuleMachine, uint64(m.Machine))
	for _, r := range m.References {
		msg := appendString(nil, fReferenceName, r.Name)
		msg = appendString(msg, fReferenceVersion, r.Version)
		b = appendMessage(b, fModuleReference, msg)
	}
	for _, t := range m.Types {
		b = appendMessage(b, fModuleType, appendType(nil, t))
	}
	for _, r := range m.Resources {
		msg := appendString(nil, fResourceName, r.Name)
		msg = appendMessage(msg, fResourceData, r.Data)
		b = appendMessage(b, fModuleResource, msg)
	}
	if len(m.Native) > 0 {
		b = appendMessage(b, fModuleNative, m.Native)
	}
	return b
}

func appendType(b []byte, t *metadata.Type) []byte {
	b = appendString(b, fTypeNamespace, t.Namespace)
	b = appendString(b, fTypeName, t.Name)
	b = appendVarint(b, fTypeFlags, uint64(t.Flags))
	for _, a := range t.Attributes {
		msg := appendMessage(nil, fAttributeType, appendTypeRef(nil, a.Type))
		for _, arg := range a.Args {
			msg = appendMessage(msg, fAttributeArg, []byte(arg))
		}
		b = appendMessage(b, fTypeAttribute, msg)
	}
	for _, meth := range t.Methods {
		b = appendMessage(b, fTypeMethod, appendMethod(nil, meth))
	}
	return b
}

func appendMethod(b []byte, m *metadata.Method) []byte {
	b = appendString(b, fMethodName, m.Name)
	b = appendVarint(b, fMethodFlags, uint64(m.Flags))
	b = appendVarint(b, fMethodParams, uint64(m.Params)) //nolint:gosec // Params is never negative
	for _, ins := range m.Body {
		msg := appendVarint(nil, fInstrOp, uint64(ins.Op))
		msg = appendString(msg, fInstrStr, ins.Str)
		if ins.Member != nil {
			mem := appendMessage(nil, fMemberType, appendTypeRef(nil, ins.Member.Type))
			mem = appendString(mem, fMemberName, ins.Member.Name)
			msg = appendMessage(msg, fInstrMember, mem)
		}
		b = appendMessage(b, fMethodInstr, msg)
	}
	return b
}

func appendTypeRef(b []byte, r metadata.TypeRef) []byte {
	b = appendString(b, fTypeRefScope, r.Scope)
	b = appendString(b, fTypeRefNamespace, r.Namespace)
	return appendString(b, fTypeRefName, r.Name)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// field is one decoded key/value pair of a message.
type field struct {
	num    protowire.Number
	varint uint64
	bytes  []byte
}

// eachField calls fn for every varint and length-delimited field of b.
// Fields of other wire types are skipped.
func eachField(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func decodeModule(b []byte) (*metadata.Module, error) {
	m := &metadata.Module{}
	err := eachField(b, func(f field) error {
		switch f.num {
		case fModuleName:
			m.Name = string(f.bytes)
		case fModuleVersion:
			m.Version = string(f.bytes)
		case fModuleMachine:
			if f.varint > uint64(metadata.MachineX64) {
				return zerr.With(zerr.New("unknown machine"), "machine", f.varint)
			}
			m.Machine = metadata.Machine(f.varint)
		case fModuleReference:
			r := &metadata.Reference{}
			if err := eachField(f.bytes, func(f field) error {
				switch f.num {
				case fReferenceName:
					r.Name = string(f.bytes)
				case fReferenceVersion:
					r.Version = string(f.bytes)
				}
				return nil
			}); err != nil {
				return err
			}
			m.References = append(m.References, r)
		case fModuleType:
			t, err := decodeType(f.bytes)
			if err != nil {
				return err
			}
			m.Types = append(m.Types, t)
		case fModuleResource:
			r := &metadata.Resource{}
			if err := eachField(f.bytes, func(f field) error {
				switch f.num {
				case fResourceName:
					r.Name = string(f.bytes)
				case fResourceData:
					r.Data = bytes.Clone(f.bytes)
				}
				return nil
			}); err != nil {
				return err
			}
			m.Resources = append(m.Resources, r)
		case fModuleNative:
			m.Native = bytes.Clone(f.bytes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func decodeType(b []byte) (*metadata.Type, error) {
	t := &metadata.Type{}
	err := eachField(b, func(f field) error {
		switch f.num {
		case fTypeNamespace:
			t.Namespace = string(f.bytes)
		case fTypeName:
			t.Name = string(f.bytes)
		case fTypeFlags:
			t.Flags = metadata.TypeFlags(f.varint) //nolint:gosec // flags fit in 32 bits
		case fTypeAttribute:
			a := &metadata.Attribute{}
			if err := eachField(f.bytes, func(f field) error {
				switch f.num {
				case fAttributeType:
					ref, err := decodeTypeRef(f.bytes)
					if err != nil {
						return err
					}
					a.Type = ref
				case fAttributeArg:
					a.Args = append(a.Args, string(f.bytes))
				}
				return nil
			}); err != nil {
				return err
			}
			t.Attributes = append(t.Attributes, a)
		case fTypeMethod:
			meth, err := decodeMethod(f.bytes)
			if err != nil {
				return err
			}
			t.Methods = append(t.Methods, meth)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func decodeMethod(b []byte) (*metadata.Method, error) {
	m := &metadata.Method{}
	err := eachField(b, func(f field) error {
		switch f.num {
		case fMethodName:
			m.Name = string(f.bytes)
		case fMethodFlags:
			m.Flags = metadata.MethodFlags(f.varint) //nolint:gosec // flags fit in 32 bits
		case fMethodParams:
			m.Params = int(f.varint) //nolint:gosec // parameter counts are small
		case fMethodInstr:
			ins, err := decodeInstruction(f.bytes)
			if err != nil {
				return err
			}
			m.Body = append(m.Body, ins)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func decodeInstruction(b []byte) (metadata.Instruction, error) {
	var ins metadata.Instruction
	err := eachField(b, func(f field) error {
		switch f.num {
		case fInstrOp:
			ins.Op = metadata.Op(f.varint) //nolint:gosec // Verify rejects unknown opcodes
		case fInstrStr:
			ins.Str = string(f.bytes)
		case fInstrMember:
			mem := &metadata.MemberRef{}
			if err := eachField(f.bytes, func(f field) error {
				switch f.num {
				case fMemberType:
					ref, err := decodeTypeRef(f.bytes)
					if err != nil {
						return err
					}
					mem.Type = ref
				case fMemberName:
					mem.Name = string(f.bytes)
				}
				return nil
			}); err != nil {
				return err
			}
			ins.Member = mem
		}
		return nil
	})
	return ins, err
}

func decodeTypeRef(b []byte) (metadata.TypeRef, error) {
	var r metadata.TypeRef
	err := eachField(b, func(f field) error {
		switch f.num {
		case fTypeRefScope:
			r.Scope = string(f.bytes)
		case fTypeRefNamespace:
			r.Namespace = string(f.bytes)
		case fTypeRefName:
			r.Name = string(f.bytes)
		}
		return nil
	})
	return r, err
}

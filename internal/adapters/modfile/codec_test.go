package modfile_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weld/internal/adapters/modfile"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/metadata"
	"go.trai.ch/weld/internal/core/metadata/metadatatest"
	"google.golang.org/protobuf/encoding/protowire"
)

func sampleModule() *metadata.Module {
	m := metadatatest.NewModule("App")
	m.Machine = metadata.MachineX64
	metadatatest.AddReturn(m, "App", "Greeter", "Hello", "hi")
	metadatatest.AddForward(m, "App", "Greeter", "Remote", metadata.MemberRef{
		Type: metadata.TypeRef{Scope: "LibA", Namespace: "LibA", Name: "Thing"},
		Name: "Foo",
	})
	metadatatest.AddNativeCall(m, "App", "Greeter", "Native", "libnative", "answer")
	greeter := m.FindType("App", "Greeter")
	greeter.Attributes = append(greeter.Attributes, &metadata.Attribute{
		Type: metadata.TypeRef{Scope: domain.BaseLibrary, Namespace: "System", Name: "ObsoleteAttribute"},
		Args: []string{"old", ""},
	})
	greeter.Methods = append(greeter.Methods, &metadata.Method{
		Name:   "Bound",
		Flags:  metadata.MethodStatic | metadata.MethodInternalCall,
		Params: 1,
	})
	m.Resources = append(m.Resources, &metadata.Resource{Name: "weld/managed/any/liba.wmod", Data: []byte{1, 2, 3}})
	m.Native = []byte{0x7f, 'E', 'L', 'F'}
	return m
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	m := sampleModule()

	data, err := modfile.Encode(m)
	require.NoError(t, err)
	assert.True(t, modfile.IsModule(data))

	got, err := modfile.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestEncode_Deterministic(t *testing.T) {
	a, err := modfile.Encode(sampleModule())
	require.NoError(t, err)
	b, err := modfile.Encode(sampleModule())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecode_NotAModule(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("MZ\x90\x00"), []byte("\x7fELF\x02\x01")} {
		_, err := modfile.Decode(data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotAModule))
		assert.False(t, errors.Is(err, domain.ErrModuleCorrupt))
	}
}

func TestDecode_Corrupt(t *testing.T) {
	valid, err := modfile.Encode(sampleModule())
	require.NoError(t, err)

	flipped := append([]byte(nil), valid...)
	flipped[len(flipped)/2] ^= 0xff

	badVersion := append([]byte(nil), valid...)
	badVersion[4] = 9

	tests := map[string][]byte{
		"truncated header": []byte("WMOD\x01"),
		"truncated body":   valid[:len(valid)-3],
		"checksum":         flipped,
		"version":          badVersion,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := modfile.Decode(data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrModuleCorrupt))
		})
	}
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	data, err := modfile.Encode(&metadata.Module{Name: "App"})
	require.NoError(t, err)

	// Rebuild the payload with an extra fixed64 field that older readers do not know.
	payload := protowire.AppendTag(nil, 1, protowire.BytesType)
	payload = protowire.AppendString(payload, "App")
	payload = protowire.AppendTag(payload, 99, protowire.Fixed64Type)
	payload = protowire.AppendFixed64(payload, 42)

	extended := append([]byte(nil), data[:5]...)
	extended = append(extended, payload...)
	extended = appendChecksum(extended, payload)

	got, err := modfile.Decode(extended)
	require.NoError(t, err)
	assert.Equal(t, "App", got.Name)
}

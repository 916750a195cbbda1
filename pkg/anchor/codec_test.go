package anchor

import (
	"encoding/binary"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIDL = `{
  "version": "0.1.0",
  "name": "test_program",
  "instructions": [
    {
      "name": "create",
      "accounts": [
        {"name": "mint", "isMut": true, "isSigner": true},
        {"name": "user", "isMut": true, "isSigner": true}
      ],
      "args": [
        {"name": "name", "type": "string"},
        {"name": "symbol", "type": "string"},
        {"name": "uri", "type": "string"}
      ]
    },
    {
      "name": "kitchen_sink",
      "accounts": [],
      "args": [
        {"name": "a", "type": "u8"},
        {"name": "b", "type": "i8"},
        {"name": "c", "type": "u16"},
        {"name": "d", "type": "i16"},
        {"name": "e", "type": "u32"},
        {"name": "f", "type": "i32"},
        {"name": "g", "type": "u64"},
        {"name": "h", "type": "i64"},
        {"name": "i", "type": "u128"},
        {"name": "j", "type": "i128"},
        {"name": "flag", "type": "bool"},
        {"name": "key", "type": "publicKey"},
        {"name": "blob", "type": "bytes"},
        {"name": "list", "type": {"vec": "u32"}},
        {"name": "maybe", "type": {"option": "u64"}},
        {"name": "nothing", "type": {"option": "string"}},
        {"name": "fixed", "type": {"array": ["u16", 3]}},
        {"name": "inner", "type": {"defined": "Inner"}},
        {"name": "curve", "type": {"defined": {"name": "Curve"}}},
        {"name": "nested", "type": {"vec": {"defined": "Inner"}}}
      ]
    }
  ],
  "accounts": [
    {
      "name": "Pool",
      "type": {
        "kind": "struct",
        "fields": [
          {"name": "reserve", "type": "u64"},
          {"name": "done", "type": "bool"},
          {"name": "owner", "type": "pubkey"}
        ]
      }
    }
  ],
  "types": [
    {
      "name": "Inner",
      "type": {"kind": "struct", "fields": [{"name": "x", "type": "u64"}, {"name": "label", "type": "string"}]}
    },
    {
      "name": "Marker",
      "type": {"kind": "struct", "fields": []}
    },
    {
      "name": "Curve",
      "type": {
        "kind": "enum",
        "variants": [
          {"name": "Empty"},
          {"name": "Constant", "fields": [{"name": "data", "type": {"defined": "Inner"}}]},
          {"name": "Fixed", "fields": ["u64"]}
        ]
      }
    }
  ],
  "events": [
    {
      "name": "Created",
      "fields": [
        {"name": "mint", "type": "publicKey"},
        {"name": "name", "type": "string"}
      ]
    }
  ]
}`

func loadTestIDL(t *testing.T) *IDL {
	t.Helper()
	idl, err := ParseIDL([]byte(testIDL))
	require.NoError(t, err)
	return idl
}

func kitchenSinkArgs() map[string]interface{} {
	key := solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	u128, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	return map[string]interface{}{
		"a":       uint8(255),
		"b":       int8(-128),
		"c":       uint16(65535),
		"d":       int16(-2),
		"e":       uint32(4_000_000_000),
		"f":       int32(-123456),
		"g":       uint64(18_446_744_073_709_551_615),
		"h":       int64(-9_000_000_000_000),
		"i":       u128,
		"j":       big.NewInt(-42),
		"flag":    true,
		"key":     key,
		"blob":    []byte{0xde, 0xad, 0xbe, 0xef},
		"list":    []interface{}{uint32(1), uint32(2), uint32(3)},
		"maybe":   uint64(7),
		"nothing": nil,
		"fixed":   []interface{}{uint16(10), uint16(20), uint16(30)},
		"inner":   map[string]interface{}{"x": uint64(99), "label": "inner"},
		"curve": EnumValue{Variant: "Constant", Fields: map[string]interface{}{
			"data": map[string]interface{}{"x": uint64(5), "label": "c"},
		}},
		"nested": []interface{}{
			map[string]interface{}{"x": uint64(1), "label": "one"},
			map[string]interface{}{"x": uint64(2), "label": "two"},
		},
	}
}

func TestParseIDL_DerivesDiscriminators(t *testing.T) {
	idl := loadTestIDL(t)

	ix, err := idl.GetInstruction("create")
	require.NoError(t, err)
	assert.Equal(t, InstructionDiscriminator("create"), ix.Discriminator())
	assert.Equal(t, 1, ix.AccountIndex("user"))
	assert.Equal(t, -1, ix.AccountIndex("missing"))

	acc, err := idl.GetAccount("Pool")
	require.NoError(t, err)
	assert.Equal(t, AccountDiscriminator("Pool"), acc.Discriminator())
}

func TestParseIDL_DiscriminatorsPairwiseDistinct(t *testing.T) {
	idl := loadTestIDL(t)

	seen := map[Discriminator]string{}
	for _, ix := range idl.Instructions {
		other, dup := seen[ix.Discriminator()]
		assert.False(t, dup, "%s collides with %s", ix.Name, other)
		seen[ix.Discriminator()] = ix.Name
	}
}

func TestParseIDL_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"invalid json", `{"instructions": [`, "invalid JSON"},
		{"missing instructions", `{"name": "x"}`, "instructions"},
		{"instruction without name", `{"instructions": [{"accounts": [], "args": []}]}`, "missing name"},
		{"unknown primitive", `{"instructions": [{"name": "a", "accounts": [], "args": [{"name": "x", "type": "u256"}]}]}`, "unknown type"},
		{"undefined reference", `{"instructions": [{"name": "a", "accounts": [], "args": [{"name": "x", "type": {"defined": "Nope"}}]}]}`, "undefined type"},
		{"duplicate instruction", `{"instructions": [{"name": "a", "accounts": [], "args": []}, {"name": "a", "accounts": [], "args": []}]}`, "duplicate"},
		{"bad kind", `{"instructions": [], "types": [{"name": "T", "type": {"kind": "union"}}]}`, "unsupported type kind"},
		{"bad array", `{"instructions": [{"name": "a", "accounts": [], "args": [{"name": "x", "type": {"array": ["u8"]}}]}]}`, "invalid document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIDL([]byte(tt.doc))
			require.Error(t, err)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %T", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadIDL_Reader(t *testing.T) {
	idl, err := LoadIDL(strings.NewReader(testIDL))
	require.NoError(t, err)
	assert.Equal(t, "test_program", idl.Name)
}

func TestDecodeInstruction_CreateScenario(t *testing.T) {
	idl := loadTestIDL(t)
	args := map[string]interface{}{
		"name":   "Foo",
		"symbol": "FOO",
		"uri":    "https://example.com/foo.json",
	}

	w := NewWriter(InstructionDiscriminator("create").Bytes()...)
	w.WriteString("Foo").WriteString("FOO").WriteString("https://example.com/foo.json")

	name, decoded, err := idl.DecodeInstruction(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "create", name)
	assert.Equal(t, args, decoded)

	encoded, err := idl.EncodeInstructionArgs("create", args)
	require.NoError(t, err)
	assert.Equal(t, w.Bytes(), encoded)
}

func TestRoundTrip_AllKinds(t *testing.T) {
	idl := loadTestIDL(t)
	args := kitchenSinkArgs()

	data, err := idl.EncodeInstructionArgs("kitchen_sink", args)
	require.NoError(t, err)

	name, decoded, err := idl.DecodeInstruction(data)
	require.NoError(t, err)
	assert.Equal(t, "kitchen_sink", name)
	assertValuesEqual(t, args, decoded)

	again, err := idl.EncodeInstructionArgs("kitchen_sink", decoded)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestVec_ZeroSizedElements(t *testing.T) {
	idl := loadTestIDL(t)

	markers := Vec(Defined("Marker"))
	data, err := idl.EncodeType(markers, []interface{}{
		map[string]interface{}{}, map[string]interface{}{}, map[string]interface{}{},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 0, 0, 0}, data)

	got, err := idl.DecodeType(data, markers)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	empty := Vec(Array(Primitive(KindU64), 0))
	got, err = idl.DecodeType(binary.LittleEndian.AppendUint32(nil, 5), empty)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	_, err = idl.DecodeType(binary.LittleEndian.AppendUint32(nil, 1<<30), markers)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, err.Error(), "zero-sized")
}

func TestRoundTrip_EnumVariants(t *testing.T) {
	idl := loadTestIDL(t)
	spec := Defined("Curve")

	for _, v := range []EnumValue{
		{Variant: "Empty"},
		{Variant: "Fixed", Fields: map[string]interface{}{"0": uint64(1234)}},
		{Variant: "Constant", Fields: map[string]interface{}{"data": map[string]interface{}{"x": uint64(1), "label": ""}}},
	} {
		data, err := idl.EncodeType(spec, v)
		require.NoError(t, err, v.Variant)

		decoded, err := idl.DecodeType(data, spec)
		require.NoError(t, err, v.Variant)
		assert.Equal(t, v, decoded)
	}
}

func TestRoundTrip_Account(t *testing.T) {
	idl := loadTestIDL(t)
	fields := map[string]interface{}{
		"reserve": uint64(30_000_000_000),
		"done":    false,
		"owner":   solana.SystemProgramID,
	}

	data, err := idl.EncodeAccount("Pool", fields)
	require.NoError(t, err)
	assert.Len(t, data, 8+8+1+32)

	decoded, err := idl.DecodeAccount(data, "Pool")
	require.NoError(t, err)
	assert.Equal(t, fields, decoded)

	// on-chain accounts carry padding after the layout
	padded := append(append([]byte(nil), data...), make([]byte, 64)...)
	decoded, err = idl.DecodeAccount(padded, "Pool")
	require.NoError(t, err)
	assert.Equal(t, fields, decoded)
}

func TestDecode_Errors(t *testing.T) {
	idl := loadTestIDL(t)

	valid, err := idl.EncodeInstructionArgs("create", map[string]interface{}{"name": "a", "symbol": "b", "uri": "c"})
	require.NoError(t, err)

	tests := []struct {
		name string
		run  func() error
		msg  string
	}{
		{"short discriminator", func() error { _, _, err := idl.DecodeInstruction([]byte{1, 2, 3}); return err }, "too short"},
		{"unknown discriminator", func() error {
			_, _, err := idl.DecodeInstruction(make([]byte, 16))
			return err
		}, "unknown instruction"},
		{"underrun", func() error { _, _, err := idl.DecodeInstruction(valid[:len(valid)-1]); return err }, "underrun"},
		{"overrun", func() error {
			_, _, err := idl.DecodeInstruction(append(append([]byte(nil), valid...), 0))
			return err
		}, "overrun"},
		{"account mismatch", func() error { _, err := idl.DecodeAccount(valid, "Pool"); return err }, "mismatch"},
		{"undefined account", func() error { _, err := idl.DecodeAccount(valid, "Nope"); return err }, "undefined"},
		{"undefined type", func() error { _, err := idl.DecodeType([]byte{0}, Defined("Nope")); return err }, "undefined type"},
		{"invalid bool", func() error { _, err := idl.DecodeType([]byte{2}, Primitive(KindBool)); return err }, "invalid bool"},
		{"invalid option flag", func() error { _, err := idl.DecodeType([]byte{9}, Option(Primitive(KindU8))); return err }, "option flag"},
		{"huge vec length", func() error {
			buf := binary.LittleEndian.AppendUint32(nil, 1<<30)
			_, err := idl.DecodeType(buf, Vec(Primitive(KindU64)))
			return err
		}, "underrun"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr), "expected DecodeError, got %T", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	idl := loadTestIDL(t)

	_, err := idl.EncodeInstructionArgs("create", map[string]interface{}{"name": "a"})
	assert.ErrorContains(t, err, "symbol")

	_, err = idl.EncodeType(Primitive(KindU8), 256)
	assert.ErrorContains(t, err, "out of u8 range")

	_, err = idl.EncodeType(Primitive(KindU64), -1)
	assert.ErrorContains(t, err, "negative")

	_, err = idl.EncodeType(Array(Primitive(KindU8), 2), []interface{}{uint8(1)})
	assert.ErrorContains(t, err, "needs 2 elements")

	_, err = idl.EncodeInstructionArgs("missing", nil)
	var encodeErr *EncodeError
	assert.True(t, errors.As(err, &encodeErr))
}

func TestDecodeEvent(t *testing.T) {
	idl := loadTestIDL(t)
	fields := map[string]interface{}{"mint": solana.SystemProgramID, "name": "Foo"}

	data, err := idl.EncodeEvent("Created", fields)
	require.NoError(t, err)

	name, decoded, err := idl.DecodeEvent(append(data, 1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, "Created", name)
	assert.Equal(t, fields, decoded)
}

func TestInt128_TwosComplement(t *testing.T) {
	idl := loadTestIDL(t)

	data, err := idl.EncodeType(Primitive(KindI128), big.NewInt(-1))
	require.NoError(t, err)
	for _, b := range data {
		assert.Equal(t, byte(0xff), b)
	}

	v, err := idl.DecodeType(data, Primitive(KindI128))
	require.NoError(t, err)
	assert.Equal(t, 0, v.(*big.Int).Cmp(big.NewInt(-1)))
}

// assertValuesEqual compares decoded values, treating *big.Int by numeric value.
func assertValuesEqual(t *testing.T, want, got interface{}) {
	t.Helper()
	switch w := want.(type) {
	case map[string]interface{}:
		g, ok := got.(map[string]interface{})
		require.True(t, ok, "expected map, got %T", got)
		require.Len(t, g, len(w))
		for k := range w {
			assertValuesEqual(t, w[k], g[k])
		}
	case []interface{}:
		g, ok := got.([]interface{})
		require.True(t, ok, "expected slice, got %T", got)
		require.Len(t, g, len(w))
		for i := range w {
			assertValuesEqual(t, w[i], g[i])
		}
	case *big.Int:
		g, ok := got.(*big.Int)
		require.True(t, ok, "expected *big.Int, got %T", got)
		assert.Equal(t, 0, w.Cmp(g), "want %s got %s", w, g)
	case EnumValue:
		g, ok := got.(EnumValue)
		require.True(t, ok, "expected EnumValue, got %T", got)
		assert.Equal(t, w.Variant, g.Variant)
		if w.Fields != nil {
			assertValuesEqual(t, w.Fields, g.Fields)
		}
	default:
		assert.Equal(t, want, got)
	}
}

package anchor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// EnumValue is the decoded form of an enum. Fields is nil for unit variants.
type EnumValue struct {
	Variant string
	Fields  map[string]interface{}
}

// DecodeInstruction matches the leading discriminator against the instruction
// table and decodes the arguments. Trailing bytes are an error.
func (idl *IDL) DecodeInstruction(data []byte) (string, map[string]interface{}, error) {
	disc, err := DiscriminatorFromBytes(data)
	if err != nil {
		return "", nil, &DecodeError{Msg: err.Error()}
	}
	ix, ok := idl.instructionsByDisc[disc]
	if !ok {
		return "", nil, &DecodeError{Msg: fmt.Sprintf("unknown instruction discriminator %s", disc)}
	}

	r := NewReader(data[DiscriminatorSize:], ix.Name)
	args, err := idl.decodeFields(r, ix.Args)
	if err != nil {
		return "", nil, err
	}
	if r.Remaining() != 0 {
		return "", nil, r.fail(fmt.Sprintf("buffer overrun: %d trailing bytes", r.Remaining()))
	}
	return ix.Name, args, nil
}

// DecodeAccount decodes account data of the named type. Accounts are allocated
// with spare room on chain, so trailing bytes after the layout are ignored.
func (idl *IDL) DecodeAccount(data []byte, name string) (map[string]interface{}, error) {
	acc, ok := idl.accountsByName[name]
	if !ok {
		return nil, &DecodeError{Target: name, Msg: "undefined account type"}
	}
	if !HasDiscriminator(data, acc.discriminator) {
		return nil, &DecodeError{Target: name, Msg: "account discriminator mismatch"}
	}

	r := NewReader(data[DiscriminatorSize:], name)
	v, err := idl.decodeTypeDef(r, &acc.Type)
	if err != nil {
		return nil, err
	}
	fields, _ := v.(map[string]interface{})
	return fields, nil
}

// DecodeEvent decodes a "Program data:" payload. Newer program versions append
// fields, so trailing bytes are ignored.
func (idl *IDL) DecodeEvent(data []byte) (string, map[string]interface{}, error) {
	disc, err := DiscriminatorFromBytes(data)
	if err != nil {
		return "", nil, &DecodeError{Msg: err.Error()}
	}
	ev, ok := idl.eventsByDisc[disc]
	if !ok {
		return "", nil, &DecodeError{Msg: fmt.Sprintf("unknown event discriminator %s", disc)}
	}

	r := NewReader(data[DiscriminatorSize:], ev.Name)
	fields, err := idl.decodeFields(r, ev.Fields)
	if err != nil {
		return "", nil, err
	}
	return ev.Name, fields, nil
}

// DecodeType decodes a single value of spec from data, requiring all bytes be consumed.
func (idl *IDL) DecodeType(data []byte, spec TypeSpec) (interface{}, error) {
	r := NewReader(data, spec.String())
	v, err := idl.decodeValue(r, spec)
	if err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, r.fail(fmt.Sprintf("buffer overrun: %d trailing bytes", r.Remaining()))
	}
	return v, nil
}

func (idl *IDL) decodeFields(r *Reader, fields []Field) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		v, err := idl.decodeValue(r, f.Type)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func (idl *IDL) decodeTypeDef(r *Reader, def *TypeDef) (interface{}, error) {
	if def.Kind == "enum" {
		idx, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		if int(idx) >= len(def.Variants) {
			return nil, r.fail(fmt.Sprintf("enum variant %d out of range", idx))
		}
		variant := def.Variants[idx]
		ev := EnumValue{Variant: variant.Name}
		if len(variant.Fields) > 0 {
			if ev.Fields, err = idl.decodeFields(r, variant.Fields); err != nil {
				return nil, err
			}
		}
		return ev, nil
	}
	return idl.decodeFields(r, def.Fields)
}

func (idl *IDL) decodeValue(r *Reader, spec TypeSpec) (interface{}, error) {
	switch spec.Kind {
	case KindBool:
		return r.ReadBool()
	case KindU8:
		return r.ReadU8()
	case KindI8:
		v, err := r.ReadU8()
		return int8(v), err
	case KindU16:
		return r.ReadU16()
	case KindI16:
		v, err := r.ReadU16()
		return int16(v), err
	case KindU32:
		return r.ReadU32()
	case KindI32:
		v, err := r.ReadU32()
		return int32(v), err
	case KindU64:
		return r.ReadU64()
	case KindI64:
		v, err := r.ReadU64()
		return int64(v), err
	case KindU128, KindI128:
		return r.ReadU128(spec.Kind == KindI128)
	case KindString:
		return r.ReadString()
	case KindBytes:
		return r.ReadBytes()
	case KindPublicKey:
		return r.ReadPublicKey()

	case KindVec:
		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if idl.zeroSized(*spec.Elem, 0) {
			if n > maxZeroSizedElems {
				return nil, r.fail(fmt.Sprintf("vec of %d zero-sized elements exceeds %d", n, maxZeroSizedElems))
			}
		} else if int(n) > r.Remaining() {
			// every element takes at least one byte
			return nil, r.fail(fmt.Sprintf("buffer underrun: vec of %d elements", n))
		}
		return idl.decodeSeq(r, *spec.Elem, int(n))

	case KindArray:
		return idl.decodeSeq(r, *spec.Elem, spec.Len)

	case KindOption:
		flag, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		switch flag {
		case 0:
			return nil, nil
		case 1:
			return idl.decodeValue(r, *spec.Elem)
		}
		return nil, r.fail(fmt.Sprintf("invalid option flag %d", flag))

	case KindDefined:
		def, ok := idl.typesByName[spec.Name]
		if !ok {
			return nil, r.fail(fmt.Sprintf("undefined type %q", spec.Name))
		}
		return idl.decodeTypeDef(r, def)
	}
	return nil, r.fail(fmt.Sprintf("unsupported type %q", spec.Kind))
}

// maxZeroSizedElems bounds vecs whose elements occupy no bytes, since their
// length cannot be checked against the remaining input
const maxZeroSizedElems = 1 << 16

// zeroSized reports whether spec encodes to zero bytes: empty structs and
// arrays of length zero or of zero-sized elements
func (idl *IDL) zeroSized(spec TypeSpec, depth int) bool {
	if depth > 32 {
		return false
	}
	switch spec.Kind {
	case KindArray:
		return spec.Len == 0 || idl.zeroSized(*spec.Elem, depth+1)
	case KindDefined:
		def, ok := idl.typesByName[spec.Name]
		if !ok || def.Kind != "struct" {
			return false
		}
		for _, f := range def.Fields {
			if !idl.zeroSized(f.Type, depth+1) {
				return false
			}
		}
		return true
	}
	return false
}

func (idl *IDL) decodeSeq(r *Reader, elem TypeSpec, n int) ([]interface{}, error) {
	out := make([]interface{}, n)
	for i := range out {
		v, err := idl.decodeValue(r, elem)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// EncodeInstructionArgs serializes discriminator || args for the named instruction.
func (idl *IDL) EncodeInstructionArgs(name string, args map[string]interface{}) ([]byte, error) {
	ix, ok := idl.instructionsByName[name]
	if !ok {
		return nil, &EncodeError{Target: name, Msg: "unknown instruction"}
	}
	e := &encoder{idl: idl, w: NewWriter(ix.discriminator[:]...), target: name}
	if err := e.fields(ix.Args, args); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}

// EncodeAccount serializes discriminator || fields for the named account type.
func (idl *IDL) EncodeAccount(name string, fields map[string]interface{}) ([]byte, error) {
	acc, ok := idl.accountsByName[name]
	if !ok {
		return nil, &EncodeError{Target: name, Msg: "unknown account"}
	}
	e := &encoder{idl: idl, w: NewWriter(acc.discriminator[:]...), target: name}
	if err := e.typeDef(&acc.Type, fields); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}

// EncodeEvent serializes discriminator || fields for the named event.
func (idl *IDL) EncodeEvent(name string, fields map[string]interface{}) ([]byte, error) {
	ev, ok := idl.eventsByName[name]
	if !ok {
		return nil, &EncodeError{Target: name, Msg: "unknown event"}
	}
	e := &encoder{idl: idl, w: NewWriter(ev.discriminator[:]...), target: name}
	if err := e.fields(ev.Fields, fields); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}

// EncodeType serializes a single value of spec.
func (idl *IDL) EncodeType(spec TypeSpec, v interface{}) ([]byte, error) {
	e := &encoder{idl: idl, w: NewWriter(), target: spec.String()}
	if err := e.value(spec, v); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}

type encoder struct {
	idl    *IDL
	w      *Writer
	target string
	field  string
}

func (e *encoder) fail(format string, args ...interface{}) error {
	return &EncodeError{Target: e.target, Field: e.field, Msg: fmt.Sprintf(format, args...)}
}

func (e *encoder) fields(fields []Field, values map[string]interface{}) error {
	parent := e.field
	defer func() { e.field = parent }()

	for _, f := range fields {
		e.field = f.Name
		if parent != "" {
			e.field = parent + "." + f.Name
		}
		v, ok := values[f.Name]
		if !ok && f.Type.Kind != KindOption {
			return e.fail("missing value")
		}
		if err := e.value(f.Type, v); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) typeDef(def *TypeDef, v interface{}) error {
	if def.Kind == "enum" {
		var ev EnumValue
		switch x := v.(type) {
		case EnumValue:
			ev = x
		case *EnumValue:
			ev = *x
		case string:
			ev = EnumValue{Variant: x}
		default:
			return e.fail("expected enum value, got %T", v)
		}
		for i, variant := range def.Variants {
			if variant.Name != ev.Variant {
				continue
			}
			e.w.WriteU8(uint8(i))
			if len(variant.Fields) == 0 {
				return nil
			}
			return e.fields(variant.Fields, ev.Fields)
		}
		return e.fail("unknown enum variant %q", ev.Variant)
	}

	m, ok := v.(map[string]interface{})
	if !ok {
		return e.fail("expected struct fields, got %T", v)
	}
	return e.fields(def.Fields, m)
}

func (e *encoder) value(spec TypeSpec, v interface{}) error {
	if width, ok := intWidths[spec.Kind]; ok {
		return e.integer(spec.Kind, width, v)
	}

	switch spec.Kind {
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return e.fail("expected bool, got %T", v)
		}
		e.w.WriteBool(b)
	case KindString:
		s, ok := v.(string)
		if !ok {
			return e.fail("expected string, got %T", v)
		}
		e.w.WriteString(s)
	case KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return e.fail("expected []byte, got %T", v)
		}
		e.w.WriteBytes(b)
	case KindPublicKey:
		pk, err := toPublicKey(v)
		if err != nil {
			return e.fail("%v", err)
		}
		e.w.WritePublicKey(pk)

	case KindVec:
		items, err := toSlice(v)
		if err != nil {
			return e.fail("%v", err)
		}
		e.w.WriteU32(uint32(len(items)))
		return e.seq(*spec.Elem, items)

	case KindArray:
		items, err := toSlice(v)
		if err != nil {
			return e.fail("%v", err)
		}
		if len(items) != spec.Len {
			return e.fail("array needs %d elements, got %d", spec.Len, len(items))
		}
		return e.seq(*spec.Elem, items)

	case KindOption:
		if v == nil {
			e.w.WriteU8(0)
			return nil
		}
		e.w.WriteU8(1)
		return e.value(*spec.Elem, v)

	case KindDefined:
		def, ok := e.idl.typesByName[spec.Name]
		if !ok {
			return e.fail("undefined type %q", spec.Name)
		}
		return e.typeDef(def, v)

	default:
		return e.fail("unsupported type %q", spec.Kind)
	}
	return nil
}

func (e *encoder) seq(elem TypeSpec, items []interface{}) error {
	for _, item := range items {
		if err := e.value(elem, item); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) integer(kind Kind, width int, v interface{}) error {
	if width == 16 {
		n, err := toBigInt(v)
		if err != nil {
			return e.fail("%v", err)
		}
		if err := e.w.WriteU128(n, kind.signed()); err != nil {
			return e.fail("%v", err)
		}
		return nil
	}

	bits := uint(width * 8)
	var raw uint64
	if kind.signed() {
		n, err := toInt64(v)
		if err != nil {
			return e.fail("%v", err)
		}
		lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
		if n < lo || n > hi {
			return e.fail("value %d out of %s range", n, kind)
		}
		raw = uint64(n)
	} else {
		n, err := toUint64(v)
		if err != nil {
			return e.fail("%v", err)
		}
		if bits < 64 && n >= uint64(1)<<bits {
			return e.fail("value %d out of %s range", n, kind)
		}
		raw = n
	}

	switch width {
	case 1:
		e.w.WriteU8(uint8(raw))
	case 2:
		e.w.WriteU16(uint16(raw))
	case 4:
		e.w.WriteU32(uint32(raw))
	default:
		e.w.WriteU64(raw)
	}
	return nil
}

var errNotInteger = errors.New("not an integer")

func toUint64(v interface{}) (uint64, error) {
	switch x := v.(type) {
	case uint8:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	case uint:
		return uint64(x), nil
	case *big.Int:
		if x.Sign() < 0 || !x.IsUint64() {
			return 0, fmt.Errorf("value %s out of u64 range", x)
		}
		return x.Uint64(), nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d for unsigned type", n)
	}
	return uint64(n), nil
}

func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("value %d out of i64 range", x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x > math.MaxInt64 {
			return 0, fmt.Errorf("%v: %w", x, errNotInteger)
		}
		return int64(x), nil
	case json.Number:
		return x.Int64()
	case *big.Int:
		if !x.IsInt64() {
			return 0, fmt.Errorf("value %s out of i64 range", x)
		}
		return x.Int64(), nil
	}
	return 0, fmt.Errorf("%T: %w", v, errNotInteger)
}

func toBigInt(v interface{}) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		return x, nil
	case big.Int:
		return &x, nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	}
	n, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	return big.NewInt(n), nil
}

func toPublicKey(v interface{}) (solana.PublicKey, error) {
	switch x := v.(type) {
	case solana.PublicKey:
		return x, nil
	case *solana.PublicKey:
		if x == nil {
			return solana.PublicKey{}, errors.New("nil public key")
		}
		return *x, nil
	case [32]byte:
		return solana.PublicKey(x), nil
	case []byte:
		if len(x) != solana.PublicKeyLength {
			return solana.PublicKey{}, fmt.Errorf("public key needs 32 bytes, got %d", len(x))
		}
		return solana.PublicKeyFromBytes(x), nil
	case string:
		return solana.PublicKeyFromBase58(x)
	}
	return solana.PublicKey{}, fmt.Errorf("expected public key, got %T", v)
}

func toSlice(v interface{}) ([]interface{}, error) {
	switch x := v.(type) {
	case []interface{}:
		return x, nil
	case []byte:
		out := make([]interface{}, len(x))
		for i, b := range x {
			out[i] = b
		}
		return out, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("expected []interface{}, got %T", v)
}

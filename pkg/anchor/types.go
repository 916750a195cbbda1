package anchor

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind names a primitive or composite type in an IDL document.
type Kind string

const (
	KindBool      Kind = "bool"
	KindU8        Kind = "u8"
	KindI8        Kind = "i8"
	KindU16       Kind = "u16"
	KindI16       Kind = "i16"
	KindU32       Kind = "u32"
	KindI32       Kind = "i32"
	KindU64       Kind = "u64"
	KindI64       Kind = "i64"
	KindU128      Kind = "u128"
	KindI128      Kind = "i128"
	KindString    Kind = "string"
	KindBytes     Kind = "bytes"
	KindPublicKey Kind = "publicKey"

	KindVec     Kind = "vec"
	KindOption  Kind = "option"
	KindArray   Kind = "array"
	KindDefined Kind = "defined"
)

var intWidths = map[Kind]int{
	KindU8: 1, KindI8: 1,
	KindU16: 2, KindI16: 2,
	KindU32: 4, KindI32: 4,
	KindU64: 8, KindI64: 8,
	KindU128: 16, KindI128: 16,
}

func (k Kind) isPrimitive() bool {
	switch k {
	case KindBool, KindString, KindBytes, KindPublicKey:
		return true
	}
	_, ok := intWidths[k]
	return ok
}

func (k Kind) signed() bool {
	switch k {
	case KindI8, KindI16, KindI32, KindI64, KindI128:
		return true
	}
	return false
}

// TypeSpec is the parsed form of a field's "type" entry:
//
//	"u64" | {"vec": T} | {"option": T} | {"array": [T, N]} | {"defined": "Name"}
type TypeSpec struct {
	Kind Kind
	Elem *TypeSpec
	Len  int
	Name string
}

// Primitive returns a spec for a primitive kind.
func Primitive(k Kind) TypeSpec { return TypeSpec{Kind: k} }

// Vec returns a spec for a length-prefixed vector of elem.
func Vec(elem TypeSpec) TypeSpec { return TypeSpec{Kind: KindVec, Elem: &elem} }

// Option returns a spec for an optional elem.
func Option(elem TypeSpec) TypeSpec { return TypeSpec{Kind: KindOption, Elem: &elem} }

// Array returns a spec for a fixed-size array of elem.
func Array(elem TypeSpec, n int) TypeSpec { return TypeSpec{Kind: KindArray, Elem: &elem, Len: n} }

// Defined returns a spec referencing a named type.
func Defined(name string) TypeSpec { return TypeSpec{Kind: KindDefined, Name: name} }

func (t TypeSpec) String() string {
	switch t.Kind {
	case KindVec, KindOption:
		return fmt.Sprintf("%s<%s>", t.Kind, t.Elem)
	case KindArray:
		return fmt.Sprintf("[%s; %d]", t.Elem, t.Len)
	case KindDefined:
		return t.Name
	}
	return string(t.Kind)
}

// UnmarshalJSON accepts both the legacy and the 0.30 Anchor spellings.
func (t *TypeSpec) UnmarshalJSON(data []byte) error {
	var prim string
	if err := json.Unmarshal(data, &prim); err == nil {
		if prim == "pubkey" {
			prim = string(KindPublicKey)
		}
		*t = TypeSpec{Kind: Kind(prim)}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("type must be a string or object: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("composite type must have exactly one key, got %d", len(obj))
	}

	for key, raw := range obj {
		switch Kind(key) {
		case KindVec, KindOption:
			var elem TypeSpec
			if err := json.Unmarshal(raw, &elem); err != nil {
				return fmt.Errorf("%s element: %w", key, err)
			}
			*t = TypeSpec{Kind: Kind(key), Elem: &elem}
		case KindArray:
			var pair []json.RawMessage
			if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
				return fmt.Errorf("array must be [type, length]")
			}
			var elem TypeSpec
			if err := json.Unmarshal(pair[0], &elem); err != nil {
				return fmt.Errorf("array element: %w", err)
			}
			n, err := strconv.Atoi(string(pair[1]))
			if err != nil || n < 0 {
				return fmt.Errorf("array length must be a non-negative integer, got %s", pair[1])
			}
			*t = TypeSpec{Kind: KindArray, Elem: &elem, Len: n}
		case KindDefined:
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				var ref struct {
					Name string `json:"name"`
				}
				if err := json.Unmarshal(raw, &ref); err != nil {
					return fmt.Errorf("defined must be a name or {\"name\": ...}")
				}
				name = ref.Name
			}
			*t = TypeSpec{Kind: KindDefined, Name: name}
		default:
			return fmt.Errorf("unknown composite type %q", key)
		}
	}
	return nil
}

// MarshalJSON writes the legacy spelling.
func (t TypeSpec) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case KindVec, KindOption:
		return json.Marshal(map[string]interface{}{string(t.Kind): t.Elem})
	case KindArray:
		return json.Marshal(map[string]interface{}{"array": []interface{}{t.Elem, t.Len}})
	case KindDefined:
		return json.Marshal(map[string]string{"defined": t.Name})
	}
	return json.Marshal(string(t.Kind))
}

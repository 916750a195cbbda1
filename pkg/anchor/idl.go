package anchor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

// IDL represents an Anchor Interface Definition Language file
type IDL struct {
	Version      string        `json:"version"`
	Name         string        `json:"name"`
	Instructions []Instruction `json:"instructions"`
	Accounts     []Account     `json:"accounts,omitempty"`
	Types        []Type        `json:"types,omitempty"`
	Events       []Event       `json:"events,omitempty"`
	Errors       []Error       `json:"errors,omitempty"`

	instructionsByDisc map[Discriminator]*Instruction
	instructionsByName map[string]*Instruction
	accountsByName     map[string]*Account
	eventsByDisc       map[Discriminator]*Event
	eventsByName       map[string]*Event
	typesByName        map[string]*TypeDef
}

// Instruction represents an instruction definition
type Instruction struct {
	Name     string       `json:"name"`
	Accounts []IDLAccount `json:"accounts"`
	Args     []Field      `json:"args"`

	discriminator Discriminator
}

// Discriminator returns the tag derived from the instruction name.
func (ix *Instruction) Discriminator() Discriminator { return ix.discriminator }

// AccountIndex returns the position of the named account role, or -1.
func (ix *Instruction) AccountIndex(name string) int {
	for i, acc := range ix.Accounts {
		if acc.Name == name {
			return i
		}
	}
	return -1
}

// IDLAccount represents an account role in instruction context
type IDLAccount struct {
	Name       string `json:"name"`
	IsMut      bool   `json:"isMut"`
	IsSigner   bool   `json:"isSigner"`
	IsOptional bool   `json:"isOptional,omitempty"`
}

// Account represents an on-chain account layout
type Account struct {
	Name string  `json:"name"`
	Type TypeDef `json:"type"`

	discriminator Discriminator
}

// Discriminator returns the tag derived from the account name.
func (a *Account) Discriminator() Discriminator { return a.discriminator }

// Type represents a named type definition
type Type struct {
	Name string  `json:"name"`
	Type TypeDef `json:"type"`
}

// TypeDef is a struct or enum body
type TypeDef struct {
	Kind     string    `json:"kind"`
	Fields   []Field   `json:"fields,omitempty"`
	Variants []Variant `json:"variants,omitempty"`
}

// Field represents a named, typed field
type Field struct {
	Name string   `json:"name"`
	Type TypeSpec `json:"type"`
}

// Variant is one arm of an enum. Tuple variants get positional names "0", "1", ...
type Variant struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields,omitempty"`
}

// UnmarshalJSON accepts named ({"name","type"}) and tuple (bare type) variant fields.
func (v *Variant) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string            `json:"name"`
		Fields []json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.Name = raw.Name
	v.Fields = nil
	for i, f := range raw.Fields {
		var named Field
		if err := json.Unmarshal(f, &named); err == nil && named.Name != "" {
			v.Fields = append(v.Fields, named)
			continue
		}
		var spec TypeSpec
		if err := json.Unmarshal(f, &spec); err != nil {
			return fmt.Errorf("variant %s field %d: %w", raw.Name, i, err)
		}
		v.Fields = append(v.Fields, Field{Name: strconv.Itoa(i), Type: spec})
	}
	return nil
}

// Event represents an event emitted through "Program data:" logs
type Event struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`

	discriminator Discriminator
}

// Discriminator returns the tag derived from the event name.
func (e *Event) Discriminator() Discriminator { return e.discriminator }

// Error represents a program error code
type Error struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg,omitempty"`
}

// ParseIDL parses and validates an IDL document.
func ParseIDL(data []byte) (*IDL, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &SchemaError{Msg: "invalid JSON", Err: err}
	}
	if _, ok := probe["instructions"]; !ok {
		return nil, schemaErrorf("", "missing required field \"instructions\"")
	}

	var idl IDL
	if err := json.Unmarshal(data, &idl); err != nil {
		return nil, &SchemaError{Msg: "invalid document", Err: err}
	}
	if err := idl.index(); err != nil {
		return nil, err
	}
	return &idl, nil
}

// LoadIDL reads an IDL document from r.
func LoadIDL(r io.Reader) (*IDL, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &SchemaError{Msg: "failed to read IDL", Err: err}
	}
	return ParseIDL(data)
}

// LoadIDLFile loads IDL from a JSON file
func LoadIDLFile(path string) (*IDL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SchemaError{Path: path, Msg: "failed to read IDL file", Err: err}
	}
	return ParseIDL(data)
}

// MustParseIDL is ParseIDL for embedded documents known to be valid.
func MustParseIDL(data []byte) *IDL {
	idl, err := ParseIDL(data)
	if err != nil {
		panic(err)
	}
	return idl
}

func (idl *IDL) index() error {
	idl.instructionsByDisc = make(map[Discriminator]*Instruction, len(idl.Instructions))
	idl.instructionsByName = make(map[string]*Instruction, len(idl.Instructions))
	idl.accountsByName = make(map[string]*Account, len(idl.Accounts))
	idl.eventsByDisc = make(map[Discriminator]*Event, len(idl.Events))
	idl.eventsByName = make(map[string]*Event, len(idl.Events))
	idl.typesByName = make(map[string]*TypeDef, len(idl.Types)+len(idl.Accounts))

	for i := range idl.Types {
		t := &idl.Types[i]
		path := fmt.Sprintf("types[%d]", i)
		if t.Name == "" {
			return schemaErrorf(path, "missing name")
		}
		if _, dup := idl.typesByName[t.Name]; dup {
			return schemaErrorf(path, "duplicate type %q", t.Name)
		}
		idl.typesByName[t.Name] = &t.Type
	}

	accountDiscs := make(map[Discriminator]string, len(idl.Accounts))
	for i := range idl.Accounts {
		a := &idl.Accounts[i]
		path := fmt.Sprintf("accounts[%d]", i)
		if a.Name == "" {
			return schemaErrorf(path, "missing name")
		}
		if _, dup := idl.accountsByName[a.Name]; dup {
			return schemaErrorf(path, "duplicate account %q", a.Name)
		}
		a.discriminator = AccountDiscriminator(a.Name)
		if other, clash := accountDiscs[a.discriminator]; clash {
			return schemaErrorf(path, "discriminator of %q collides with %q", a.Name, other)
		}
		accountDiscs[a.discriminator] = a.Name
		idl.accountsByName[a.Name] = a
		if _, shadowed := idl.typesByName[a.Name]; !shadowed {
			idl.typesByName[a.Name] = &a.Type
		}
	}

	for i := range idl.Instructions {
		ix := &idl.Instructions[i]
		path := fmt.Sprintf("instructions[%d]", i)
		if ix.Name == "" {
			return schemaErrorf(path, "missing name")
		}
		if _, dup := idl.instructionsByName[ix.Name]; dup {
			return schemaErrorf(path, "duplicate instruction %q", ix.Name)
		}
		ix.discriminator = InstructionDiscriminator(ix.Name)
		if other, clash := idl.instructionsByDisc[ix.discriminator]; clash {
			return schemaErrorf(path, "discriminator of %q collides with %q", ix.Name, other.Name)
		}
		for j, acc := range ix.Accounts {
			if acc.Name == "" {
				return schemaErrorf(fmt.Sprintf("%s.accounts[%d]", path, j), "missing name")
			}
		}
		idl.instructionsByDisc[ix.discriminator] = ix
		idl.instructionsByName[ix.Name] = ix
	}

	for i := range idl.Events {
		ev := &idl.Events[i]
		path := fmt.Sprintf("events[%d]", i)
		if ev.Name == "" {
			return schemaErrorf(path, "missing name")
		}
		ev.discriminator = EventDiscriminator(ev.Name)
		if other, clash := idl.eventsByDisc[ev.discriminator]; clash {
			return schemaErrorf(path, "discriminator of %q collides with %q", ev.Name, other.Name)
		}
		idl.eventsByDisc[ev.discriminator] = ev
		idl.eventsByName[ev.Name] = ev
	}

	return idl.validateTypes()
}

// validateTypes checks every field's kind and every "defined" reference.
func (idl *IDL) validateTypes() error {
	for i, t := range idl.Types {
		if err := idl.validateTypeDef(fmt.Sprintf("types[%d]", i), &t.Type); err != nil {
			return err
		}
	}
	for i, a := range idl.Accounts {
		if err := idl.validateTypeDef(fmt.Sprintf("accounts[%d]", i), &a.Type); err != nil {
			return err
		}
	}
	for i, ix := range idl.Instructions {
		if err := idl.validateFields(fmt.Sprintf("instructions[%d].args", i), ix.Args); err != nil {
			return err
		}
	}
	for i, ev := range idl.Events {
		if err := idl.validateFields(fmt.Sprintf("events[%d].fields", i), ev.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (idl *IDL) validateTypeDef(path string, def *TypeDef) error {
	switch def.Kind {
	case "struct":
		return idl.validateFields(path+".fields", def.Fields)
	case "enum":
		if len(def.Variants) == 0 {
			return schemaErrorf(path, "enum without variants")
		}
		if len(def.Variants) > 256 {
			return schemaErrorf(path, "enum has %d variants, max 256", len(def.Variants))
		}
		for j, v := range def.Variants {
			vpath := fmt.Sprintf("%s.variants[%d]", path, j)
			if v.Name == "" {
				return schemaErrorf(vpath, "missing name")
			}
			if err := idl.validateFields(vpath+".fields", v.Fields); err != nil {
				return err
			}
		}
		return nil
	case "":
		return schemaErrorf(path, "missing type kind")
	default:
		return schemaErrorf(path, "unsupported type kind %q", def.Kind)
	}
}

func (idl *IDL) validateFields(path string, fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for j, f := range fields {
		fpath := fmt.Sprintf("%s[%d]", path, j)
		if f.Name == "" {
			return schemaErrorf(fpath, "missing name")
		}
		if _, dup := seen[f.Name]; dup {
			return schemaErrorf(fpath, "duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		if err := idl.validateSpec(fpath, f.Type); err != nil {
			return err
		}
	}
	return nil
}

func (idl *IDL) validateSpec(path string, spec TypeSpec) error {
	switch spec.Kind {
	case KindVec, KindOption, KindArray:
		if spec.Elem == nil {
			return schemaErrorf(path, "%s without element type", spec.Kind)
		}
		return idl.validateSpec(path, *spec.Elem)
	case KindDefined:
		if _, ok := idl.typesByName[spec.Name]; !ok {
			return schemaErrorf(path, "undefined type %q", spec.Name)
		}
		return nil
	case "":
		return schemaErrorf(path, "missing type")
	}
	if !spec.Kind.isPrimitive() {
		return schemaErrorf(path, "unknown type %q", spec.Kind)
	}
	return nil
}

// GetInstruction returns instruction by name
func (idl *IDL) GetInstruction(name string) (*Instruction, error) {
	if ix, ok := idl.instructionsByName[name]; ok {
		return ix, nil
	}
	return nil, fmt.Errorf("instruction %s not found", name)
}

// GetAccount returns account by name
func (idl *IDL) GetAccount(name string) (*Account, error) {
	if a, ok := idl.accountsByName[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("account %s not found", name)
}

// GetEvent returns event by name
func (idl *IDL) GetEvent(name string) (*Event, error) {
	if ev, ok := idl.eventsByName[name]; ok {
		return ev, nil
	}
	return nil, fmt.Errorf("event %s not found", name)
}

// GetType returns type by name
func (idl *IDL) GetType(name string) (*TypeDef, error) {
	if t, ok := idl.typesByName[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("type %s not found", name)
}

// GetError returns error by code
func (idl *IDL) GetError(code int) (*Error, error) {
	for i := range idl.Errors {
		if idl.Errors[i].Code == code {
			return &idl.Errors[i], nil
		}
	}
	return nil, fmt.Errorf("error code %d not found", code)
}

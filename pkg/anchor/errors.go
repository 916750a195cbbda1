package anchor

import "fmt"

// SchemaError reports a malformed or incomplete IDL document.
type SchemaError struct {
	Path string // location inside the document, e.g. "instructions[2].args[0]"
	Msg  string
	Err  error
}

func (e *SchemaError) Error() string {
	msg := "schema error"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	msg += ": " + e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

func schemaErrorf(path, format string, args ...interface{}) *SchemaError {
	return &SchemaError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// DecodeError reports bytes that do not match the schema: unknown
// discriminators, buffer underrun or trailing bytes, undefined types.
type DecodeError struct {
	Target string // instruction, account, event or type name being decoded
	Offset int
	Msg    string
}

func (e *DecodeError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("decode error at offset %d: %s", e.Offset, e.Msg)
	}
	return fmt.Sprintf("decode %s at offset %d: %s", e.Target, e.Offset, e.Msg)
}

// EncodeError reports a value that cannot be serialized for the requested type.
type EncodeError struct {
	Target string
	Field  string
	Msg    string
}

func (e *EncodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("encode %s: %s", e.Target, e.Msg)
	}
	return fmt.Sprintf("encode %s.%s: %s", e.Target, e.Field, e.Msg)
}

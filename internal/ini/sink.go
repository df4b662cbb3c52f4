package ini

// Sink receives events from the parser and materializes the resulting
// tree. The parser never remembers previously parsed keys; duplicate
// detection is delegated entirely to ContainsKey (spec.md §4.5).
type Sink interface {
	// ContainsKey reports whether key already exists in the current
	// section, and if so whether it names a sub-section (present=true)
	// as opposed to a scalar or array (present=false). ok is false if
	// key is absent.
	ContainsKey(key string) (present, ok bool)

	AddValue(key string, value ScalarValue, overwrite bool) error

	StartSection(name string, overwrite bool) error
	EndSection(name string) error

	StartArray(name string, overwrite bool) error
	AddArrayValue(value ScalarValue) error
	EndArray(name string) error
}

// ScalarKind identifies the type of a ScalarValue.
type ScalarKind int

const (
	ScalarBool ScalarKind = iota
	ScalarI64
	ScalarF64
	ScalarString
)

// ScalarValue is one parsed leaf literal: a bool, integer, float, or
// string (spec.md §4.5's scalar grammar).
type ScalarValue struct {
	Kind   ScalarKind
	Bool   bool
	I64    int64
	F64    float64
	String string
}

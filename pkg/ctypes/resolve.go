package ctypes

import "fmt"

// StructRegistry holds struct types that have been declared, keyed by name.
// No syntax in pkg/parser populates this (see spec §9 / DESIGN.md); it
// exists so a future struct-declaration grammar rule has somewhere to
// register into without reshaping pkg/sema.
type StructRegistry struct {
	structs map[string]Tstruct
}

// NewStructRegistry returns an empty struct-type registry.
func NewStructRegistry() *StructRegistry {
	return &StructRegistry{structs: make(map[string]Tstruct)}
}

// Register adds a struct type to the registry.
func (r *StructRegistry) Register(s Tstruct) {
	r.structs[s.Name] = s
}

// Lookup returns the registered struct type for name, if any.
func (r *StructRegistry) Lookup(name string) (Tstruct, bool) {
	s, ok := r.structs[name]
	return s, ok
}

// FromSpec resolves a textual type spelling ("int", "char", "void") from
// the parser into a Type. Only the three scalars spec.md admits are ever
// produced by pkg/parser. Any other spelling is looked up in structs by
// its exact text, which is matched against a registered struct's bare
// Name; a "struct Name" spelling does not match a struct registered as
// "Name".
func FromSpec(spelling string, structs *StructRegistry) (Type, error) {
	switch spelling {
	case "int":
		return Int(), nil
	case "char":
		return Char(), nil
	case "void":
		return Void(), nil
	}
	if structs != nil {
		if s, ok := structs.Lookup(spelling); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown type name: %s", spelling)
}

// IRType maps a Type to its LLVM textual type spelling (spec §4.4).
func IRType(t Type) string {
	switch ty := t.(type) {
	case Tvoid:
		return "void"
	case Tint:
		if ty.Size == I8 {
			return "i8"
		}
		return "i32"
	case Tpointer:
		return IRType(ty.Elem) + "*"
	case Tarray:
		return fmt.Sprintf("[%d x %s]", ty.Size, IRType(ty.Elem))
	case Tstruct:
		return "%struct." + ty.Name
	default:
		return "i32"
	}
}

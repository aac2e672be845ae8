package compiler

import "fmt"

// Category is the tag of a Type.
type Category int

const (
	CategoryChar Category = iota
	CategoryInteger
	CategoryReal
	CategoryAlias
	CategoryArray
	CategoryNil
	CategoryRecord
	CategoryFunction
	CategoryModified
	CategoryPointer
	CategoryString
)

func (c Category) String() string {
	switch c {
	case CategoryChar:
		return "char"
	case CategoryInteger:
		return "integer"
	case CategoryReal:
		return "real"
	case CategoryAlias:
		return "alias"
	case CategoryArray:
		return "array"
	case CategoryNil:
		return "nil"
	case CategoryRecord:
		return "record"
	case CategoryFunction:
		return "function"
	case CategoryModified:
		return "modified"
	case CategoryPointer:
		return "pointer"
	case CategoryString:
		return "string"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Modifier distinguishes const and var (by-reference) wrappers.
type Modifier int

const (
	ModConst Modifier = iota
	ModVar
)

// Type is a resolved type. Which fields are meaningful depends on
// Category:
//
//	CategoryAlias:    Base is the aliased type
//	CategoryModified: Base is the wrapped type, Modifier says how
//	CategoryPointer:  Base is the pointee
//	CategoryArray:    Elem, Min, Max
//	CategoryRecord:   Fields
//	CategoryFunction: Params, Locals, Return (nil for procedures), Decl
type Type struct {
	Category Category
	Name     string // empty for anonymous types

	Base     *Type
	Modifier Modifier

	Elem     *Type
	Min, Max int64

	Fields *SymbolTable

	Params *SymbolTable
	Locals *SymbolTable
	Return *Type
	Decl   Position
}

var (
	Integer = &Type{Category: CategoryInteger, Name: "integer"}
	Real    = &Type{Category: CategoryReal, Name: "real"}
	Char    = &Type{Category: CategoryChar, Name: "char"}
	String  = &Type{Category: CategoryString, Name: "string"}
	Nil     = &Type{Category: CategoryNil, Name: "nil"}
)

func NewAlias(name string, target *Type) *Type {
	return &Type{Category: CategoryAlias, Name: name, Base: target}
}

func NewModified(mod Modifier, inner *Type) *Type {
	return &Type{Category: CategoryModified, Modifier: mod, Base: inner}
}

func NewPointer(target *Type) *Type {
	return &Type{Category: CategoryPointer, Base: target}
}

func NewArray(min, max int64, elem *Type) *Type {
	return &Type{Category: CategoryArray, Min: min, Max: max, Elem: elem}
}

func NewRecord(fields *SymbolTable) *Type {
	fields.ComputeOffsets()
	return &Type{Category: CategoryRecord, Fields: fields}
}

// NewFunction describes a function or, with a nil result, a procedure.
func NewFunction(name string, params, locals *SymbolTable, result *Type, decl Position) *Type {
	return &Type{
		Category: CategoryFunction,
		Name:     name,
		Params:   params,
		Locals:   locals,
		Return:   result,
		Decl:     decl,
	}
}

// BaseType strips alias and modified wrappers.
func (t *Type) BaseType() *Type {
	for t.Category == CategoryAlias || t.Category == CategoryModified {
		t = t.Base
	}
	return t
}

func (t *Type) IsScalar() bool {
	switch t.BaseType().Category {
	case CategoryInteger, CategoryReal, CategoryChar:
		return true
	default:
		return false
	}
}

// IsVarParam reports whether t is a by-reference parameter type.
func (t *Type) IsVarParam() bool {
	return t.Category == CategoryModified && t.Modifier == ModVar
}

// IsConstant reports whether t is a const-modified type.
func (t *Type) IsConstant() bool {
	return t.Category == CategoryModified && t.Modifier == ModConst
}

// IsProcedure reports whether t is a function type without a result.
func (t *Type) IsProcedure() bool {
	b := t.BaseType()
	return b.Category == CategoryFunction && b.Return == nil
}

// Size is the number of bytes a value of the type occupies in memory.
// Arrays and records are rounded up to a multiple of 4.
func (t *Type) Size() int {
	switch t.Category {
	case CategoryChar:
		return 1
	case CategoryInteger, CategoryPointer, CategoryString:
		return 4
	case CategoryReal:
		return 8
	case CategoryNil, CategoryFunction:
		return 0
	case CategoryAlias, CategoryModified:
		return t.Base.Size()
	case CategoryArray:
		return roundUp(int(t.Max-t.Min+1)*t.Elem.Size(), 4)
	case CategoryRecord:
		return roundUp(t.Fields.Size(), 4)
	default:
		invariant("size of %s", t.Category)
		return 0
	}
}

// Len is the element count of an array type.
func (t *Type) Len() int {
	return int(t.Max - t.Min + 1)
}

func (t *Type) String() string {
	if t.Name != "" {
		return t.Name
	}
	switch t.Category {
	case CategoryArray:
		return fmt.Sprintf("array[%d..%d] of %s", t.Min, t.Max, t.Elem)
	case CategoryRecord:
		return "record"
	case CategoryPointer:
		return "^" + t.Base.String()
	case CategoryModified:
		if t.Modifier == ModVar {
			return "var " + t.Base.String()
		}
		return "const " + t.Base.String()
	case CategoryAlias:
		return t.Base.String()
	default:
		return t.Category.String()
	}
}

// TypesEqual compares types after stripping wrappers. Records and
// functions are equal only when they are the same declared type; named
// arrays likewise, while two anonymous arrays compare structurally.
func TypesEqual(a, b *Type) bool {
	a, b = a.BaseType(), b.BaseType()
	if a == b {
		return true
	}
	if a.Category != b.Category {
		return false
	}
	switch a.Category {
	case CategoryInteger, CategoryReal, CategoryChar, CategoryString, CategoryNil:
		return true
	case CategoryPointer:
		return TypesEqual(a.Base, b.Base)
	case CategoryArray:
		return a.Name == "" && b.Name == "" &&
			a.Min == b.Min && a.Max == b.Max && TypesEqual(a.Elem, b.Elem)
	default:
		return false
	}
}

func roundUp(n, to int) int {
	return (n + to - 1) / to * to
}

package compiler

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestTypeSize(t *testing.T) {
	point := NewSymbolTable()
	be.Err(t, point.Add("tag", Char, nil), nil)
	be.Err(t, point.Add("x", Integer, nil), nil)
	record := NewRecord(point)

	tests := []struct {
		name string
		typ  *Type
		want int
	}{
		{"char", Char, 1},
		{"integer", Integer, 4},
		{"real", Real, 8},
		{"nil", Nil, 0},
		{"alias", NewAlias("count", Integer), 4},
		{"var modifier", NewModified(ModVar, Real), 8},
		{"char array rounds up", NewArray(1, 5, Char), 8},
		{"real array", NewArray(0, 2, Real), 24},
		{"packed record rounds up", record, 8},
		{"array of records", NewArray(1, 3, record), 24},
		{"function", NewFunction("f", NewFrameTable(), NewFrameTable(), Integer, Position{1, 1}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be.Equal(t, tt.typ.Size(), tt.want)
		})
	}
}

func TestBaseTypeStripsWrappers(t *testing.T) {
	wrapped := NewModified(ModConst, NewAlias("b", NewAlias("a", Real)))
	be.Equal(t, wrapped.BaseType(), Real)
	be.True(t, wrapped.IsScalar())
	be.True(t, wrapped.IsConstant())
	be.True(t, !wrapped.IsVarParam())
}

func TestTypesEqual(t *testing.T) {
	named := NewArray(1, 3, Integer)
	named.Name = "triple"
	rec := NewRecord(NewSymbolTable())

	tests := []struct {
		name string
		a, b *Type
		want bool
	}{
		{"same scalar", Integer, Integer, true},
		{"different scalars", Integer, Real, false},
		{"alias of scalar", NewAlias("n", Integer), Integer, true},
		{"modified scalar", NewModified(ModVar, Char), Char, true},
		{"anonymous arrays match by shape", NewArray(1, 3, Integer), NewArray(1, 3, Integer), true},
		{"anonymous arrays with other bounds", NewArray(0, 2, Integer), NewArray(1, 3, Integer), false},
		{"anonymous arrays with other elements", NewArray(1, 3, Integer), NewArray(1, 3, Real), false},
		{"named array equals itself", named, NewAlias("t", named), true},
		{"named array is not anonymous", named, NewArray(1, 3, Integer), false},
		{"record equals itself", rec, rec, true},
		{"records are nominal", rec, NewRecord(NewSymbolTable()), false},
		{"pointers compare targets", NewPointer(Integer), NewPointer(NewAlias("n", Integer)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be.Equal(t, TypesEqual(tt.a, tt.b), tt.want)
			be.Equal(t, TypesEqual(tt.b, tt.a), tt.want)
		})
	}
}

func TestTypeString(t *testing.T) {
	be.Equal(t, Integer.String(), "integer")
	be.Equal(t, NewArray(1, 10, Char).String(), "array[1..10] of char")
	be.Equal(t, NewModified(ModVar, Real).String(), "var real")
	be.Equal(t, NewModified(ModConst, Integer).String(), "const integer")
	be.Equal(t, NewPointer(Integer).String(), "^integer")
	be.Equal(t, NewAlias("", Real).String(), "real")
	be.Equal(t, NewAlias("money", Real).String(), "money")
	be.Equal(t, NewRecord(NewSymbolTable()).String(), "record")
}

func TestIsProcedure(t *testing.T) {
	proc := NewFunction("p", NewFrameTable(), NewFrameTable(), nil, Position{1, 1})
	fn := NewFunction("f", NewFrameTable(), NewFrameTable(), Integer, Position{1, 1})
	be.True(t, proc.IsProcedure())
	be.True(t, !fn.IsProcedure())
	be.True(t, !Integer.IsProcedure())
}

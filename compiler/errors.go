package compiler

import (
	"errors"
	"fmt"
)

// Position is a 1-based row/column in the source program.
type Position struct {
	Row int
	Col int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

// IsZero reports whether the position is unknown.
func (p Position) IsZero() bool {
	return p == Position{}
}

// ErrorKind classifies user-facing compile errors.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota
	KindDuplicateSymbol
	KindSymbolNotFound
	KindUnsupportedOperand
	KindIncompatibleTypes
	KindConversion
	KindDivisionByZero
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindDuplicateSymbol:
		return "duplicate symbol"
	case KindSymbolNotFound:
		return "symbol not found"
	case KindUnsupportedOperand:
		return "unsupported operand"
	case KindIncompatibleTypes:
		return "incompatible types"
	case KindConversion:
		return "conversion error"
	case KindDivisionByZero:
		return "division by zero"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a compile error tied to a source position.
type Error struct {
	Kind ErrorKind
	Pos  Position
	Name string // offending identifier, when there is one
	Msg  string
}

func (e *Error) Error() string {
	if e.Pos.IsZero() {
		return "error: " + e.Msg
	}
	return e.Pos.String() + " error: " + e.Msg
}

// Is matches the sentinel of the same kind, so callers can write
// errors.Is(err, ErrDuplicateSymbol).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Kind == e.Kind
}

var (
	ErrSyntax             = &Error{Kind: KindSyntax}
	ErrDuplicateSymbol    = &Error{Kind: KindDuplicateSymbol}
	ErrSymbolNotFound     = &Error{Kind: KindSymbolNotFound}
	ErrUnsupportedOperand = &Error{Kind: KindUnsupportedOperand}
	ErrIncompatibleTypes  = &Error{Kind: KindIncompatibleTypes}
	ErrConversion         = &Error{Kind: KindConversion}
	ErrDivisionByZero     = &Error{Kind: KindDivisionByZero}
)

func errorf(kind ErrorKind, pos Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func nameErrorf(kind ErrorKind, name string, format string, args ...any) *Error {
	return &Error{Kind: kind, Name: name, Msg: fmt.Sprintf(format, args...)}
}

// withPos stamps pos onto a compile error that was raised without one.
func withPos(err error, pos Position) error {
	var e *Error
	if errors.As(err, &e) && e.Pos.IsZero() {
		stamped := *e
		stamped.Pos = pos
		return &stamped
	}
	return err
}

// InvariantViolation is the panic value for states the node constructors
// rule out. It never reaches users of a well-formed tree.
type InvariantViolation struct {
	Msg string
}

func (v InvariantViolation) Error() string {
	return "internal error: " + v.Msg
}

func invariant(format string, args ...any) {
	panic(InvariantViolation{Msg: fmt.Sprintf(format, args...)})
}

package compiler

import (
	"fmt"
	"strings"
)

// Symbol is one named entry of a SymbolTable.
type Symbol struct {
	Name  string
	Type  *Type
	Value *Node // initializer, default argument, constant value or function body

	offset int
}

// SymbolTable is an ordered scope of uniquely named entries. It serves as
// a record's field list and as a function's parameter or locals frame.
type SymbolTable struct {
	entries  []*Symbol
	index    map[string]int
	align    int
	computed bool
}

// NewSymbolTable returns a table whose slots are exactly as large as
// their types, as record fields are laid out.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]int), align: 1}
}

// NewFrameTable returns a table for stack frames: every slot is rounded
// up to 4 bytes, a by-reference entry holds a 4-byte address, and type
// and function declarations take no space.
func NewFrameTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]int), align: 4}
}

// Add appends an entry. Names are case-sensitive.
func (t *SymbolTable) Add(name string, typ *Type, value *Node) error {
	if _, exists := t.index[name]; exists {
		return nameErrorf(KindDuplicateSymbol, name, "identifier '%s' already declared", name)
	}
	t.index[name] = len(t.entries)
	t.entries = append(t.entries, &Symbol{Name: name, Type: typ, Value: value})
	t.computed = false
	return nil
}

// Lookup finds an entry by name.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.entries[i], true
}

func (t *SymbolTable) get(name string) (*Symbol, error) {
	s, ok := t.Lookup(name)
	if !ok {
		return nil, nameErrorf(KindSymbolNotFound, name, "unknown identifier '%s'", name)
	}
	return s, nil
}

func (t *SymbolTable) Type(name string) (*Type, error) {
	s, err := t.get(name)
	if err != nil {
		return nil, err
	}
	return s.Type, nil
}

func (t *SymbolTable) Value(name string) (*Node, error) {
	s, err := t.get(name)
	if err != nil {
		return nil, err
	}
	return s.Value, nil
}

// At returns the entry at a declaration index.
func (t *SymbolTable) At(i int) (*Symbol, error) {
	if i < 0 || i >= len(t.entries) {
		return nil, nameErrorf(KindSymbolNotFound, "", "no entry at index %d", i)
	}
	return t.entries[i], nil
}

func (t *SymbolTable) Len() int {
	return len(t.entries)
}

// Entries returns the entries in declaration order.
func (t *SymbolTable) Entries() []*Symbol {
	return t.entries
}

// Change replaces the type and value of an existing entry in place.
func (t *SymbolTable) Change(name string, typ *Type, value *Node) error {
	s, err := t.get(name)
	if err != nil {
		return err
	}
	s.Type, s.Value = typ, value
	t.computed = false
	return nil
}

// ChangeLast replaces the type and value of the most recent entry.
func (t *SymbolTable) ChangeLast(typ *Type, value *Node) error {
	if len(t.entries) == 0 {
		return nameErrorf(KindSymbolNotFound, "", "table is empty")
	}
	s := t.entries[len(t.entries)-1]
	s.Type, s.Value = typ, value
	t.computed = false
	return nil
}

// ComputeOffsets assigns each entry the cumulative slot size up to and
// including itself, in declaration order.
func (t *SymbolTable) ComputeOffsets() {
	total := 0
	for _, s := range t.entries {
		total += t.slotSize(s.Type)
		s.offset = total
	}
	t.computed = true
}

// Offset returns the entry's offset as assigned by ComputeOffsets. Asking
// before the offsets are computed is an invariant violation.
func (t *SymbolTable) Offset(name string) (int, error) {
	s, err := t.get(name)
	if err != nil {
		return 0, err
	}
	if !t.computed {
		invariant("offsets not computed for '%s'", name)
	}
	return s.offset, nil
}

// Start returns the byte offset where the entry's slot begins.
func (t *SymbolTable) Start(name string) (int, error) {
	off, err := t.Offset(name)
	if err != nil {
		return 0, err
	}
	s, _ := t.Lookup(name)
	return off - t.slotSize(s.Type), nil
}

// Size is the total bytes of all slots.
func (t *SymbolTable) Size() int {
	total := 0
	for _, s := range t.entries {
		total += t.slotSize(s.Type)
	}
	return total
}

func (t *SymbolTable) slotSize(typ *Type) int {
	if t.align == 1 {
		return typ.Size()
	}
	switch {
	case typ.Category == CategoryAlias, typ.Category == CategoryFunction:
		return 0
	case typ.IsVarParam():
		return 4
	default:
		return roundUp(typ.Size(), t.align)
	}
}

func (t *SymbolTable) String() string {
	var b strings.Builder
	for i, s := range t.entries {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", s.Name, s.Type)
		if t.computed {
			fmt.Fprintf(&b, " @%d", s.offset)
		}
	}
	return b.String()
}

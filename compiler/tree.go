package compiler

// NodeKind represents different types of AST nodes
type NodeKind string

const (
	NodeVariable      NodeKind = "NodeVariable"
	NodeConstant      NodeKind = "NodeConstant"
	NodeTypedConstant NodeKind = "NodeTypedConstant"
	NodeBinary        NodeKind = "NodeBinary"
	NodeUnary         NodeKind = "NodeUnary"
	NodeAssign        NodeKind = "NodeAssign"
	NodeCall          NodeKind = "NodeCall"
	NodeIndex         NodeKind = "NodeIndex"
	NodeField         NodeKind = "NodeField"
	NodeCast          NodeKind = "NodeCast"
	NodeWrite         NodeKind = "NodeWrite"
	NodeRead          NodeKind = "NodeRead"
	NodeBlock         NodeKind = "NodeBlock"
	NodeIf            NodeKind = "NodeIf"
	NodeWhile         NodeKind = "NodeWhile"
	NodeFor           NodeKind = "NodeFor"
	NodeRepeat        NodeKind = "NodeRepeat"
	NodeBreak         NodeKind = "NodeBreak"
	NodeContinue      NodeKind = "NodeContinue"
	NodeExit          NodeKind = "NodeExit"
)

// Value is the literal payload of a constant node. Integers and
// characters use Int.
type Value struct {
	Int  int64
	Real float64
	Str  string
}

// Binding records where a variable reference was resolved.
type Binding struct {
	Table *SymbolTable
	Depth int  // nesting depth of the declaring function; the program is 1
	Param bool // Table is a parameter frame
}

// Node represents a node in the Abstract Syntax Tree.
//
// Children are owned by the node. Target is the "applied" operand of
// call, index, field and cast nodes; it may be shared with other parts of
// the tree or with a symbol table and must not be rewritten through this
// node.
//
// Children by kind:
//
//	NodeBinary, NodeAssign: left, right
//	NodeUnary:              operand
//	NodeCall:               arguments (Target: the function variable)
//	NodeIndex:              index (Target: the array)
//	NodeField:              field variable (Target: the record)
//	NodeTypedConstant:      element values
//	NodeWrite, NodeRead:    arguments
//	NodeBlock:              statements
//	NodeIf:                 condition, then, else (branches may be nil)
//	NodeWhile:              condition, body
//	NodeRepeat:             body, condition
//	NodeFor:                variable, from, to, body
type Node struct {
	Kind     NodeKind
	Pos      Position
	Type     *Type // set on expressions
	Target   *Node
	Children []*Node

	// NodeBinary, NodeUnary, NodeAssign:
	Op Operator
	// NodeVariable:
	Name    string
	Binding Binding
	// NodeConstant:
	Value Value
	// NodeFor:
	Downto bool
	// NodeWrite:
	Newline bool
}

func (n *Node) child(i int) *Node {
	if i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

func (n *Node) Left() *Node    { return n.child(0) }
func (n *Node) Right() *Node   { return n.child(1) }
func (n *Node) Operand() *Node { return n.child(0) }

// Cond returns the condition of an if, while or repeat node.
func (n *Node) Cond() *Node {
	if n.Kind == NodeRepeat {
		return n.child(1)
	}
	return n.child(0)
}

func (n *Node) Then() *Node { return n.child(1) }
func (n *Node) Else() *Node { return n.child(2) }

// Body returns the loop body of a while, repeat or for node.
func (n *Node) Body() *Node {
	switch n.Kind {
	case NodeWhile:
		return n.child(1)
	case NodeRepeat:
		return n.child(0)
	case NodeFor:
		return n.child(3)
	default:
		return nil
	}
}

// IsExpression reports whether the node yields a value.
func (n *Node) IsExpression() bool {
	switch n.Kind {
	case NodeVariable, NodeConstant, NodeTypedConstant, NodeBinary, NodeUnary,
		NodeCall, NodeIndex, NodeField, NodeCast:
		return true
	default:
		return false
	}
}

func NewInteger(pos Position, v int64) *Node {
	return &Node{Kind: NodeConstant, Pos: pos, Type: Integer, Value: Value{Int: v}}
}

func NewReal(pos Position, v float64) *Node {
	return &Node{Kind: NodeConstant, Pos: pos, Type: Real, Value: Value{Real: v}}
}

// NewChar makes a char constant. Chars are signed bytes, the way movsx
// loads them at run time.
func NewChar(pos Position, c byte) *Node {
	return &Node{Kind: NodeConstant, Pos: pos, Type: Char, Value: Value{Int: int64(int8(c))}}
}

func NewString(pos Position, s string) *Node {
	return &Node{Kind: NodeConstant, Pos: pos, Type: String, Value: Value{Str: s}}
}

// NewVariable references a declared entry of b.Table.
func NewVariable(pos Position, name string, typ *Type, b Binding) *Node {
	return &Node{Kind: NodeVariable, Pos: pos, Name: name, Type: typ, Binding: b}
}

func NewBlock(pos Position, statements []*Node) *Node {
	return &Node{Kind: NodeBlock, Pos: pos, Children: statements}
}

func NewBreak(pos Position) *Node    { return &Node{Kind: NodeBreak, Pos: pos} }
func NewContinue(pos Position) *Node { return &Node{Kind: NodeContinue, Pos: pos} }
func NewExit(pos Position) *Node     { return &Node{Kind: NodeExit, Pos: pos} }

// constantOf returns the literal a node stands for: the node itself when
// it is a scalar constant, or the value of a const declaration it refers
// to. Parameters never qualify: their symbols hold defaults, and the
// caller decides the value.
func constantOf(n *Node) *Node {
	switch n.Kind {
	case NodeConstant:
		return n
	case NodeVariable:
		if !n.Type.IsConstant() || n.Binding.Table == nil || n.Binding.Param {
			return nil
		}
		s, ok := n.Binding.Table.Lookup(n.Name)
		if !ok || s.Value == nil || s.Value.Kind != NodeConstant {
			return nil
		}
		return s.Value
	default:
		return nil
	}
}

// isAddressable reports whether the node denotes storage.
func isAddressable(n *Node) bool {
	switch n.Kind {
	case NodeVariable:
		return n.Type.BaseType().Category != CategoryFunction
	case NodeIndex, NodeField:
		return true
	default:
		return false
	}
}

// rootVariable returns the variable an lvalue is rooted at.
func rootVariable(n *Node) *Node {
	for n.Kind == NodeIndex || n.Kind == NodeField {
		n = n.Target
	}
	if n.Kind != NodeVariable {
		return nil
	}
	return n
}

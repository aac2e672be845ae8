package compiler

// OptimizeProgram optimizes the program body and the body of every
// function declared in it, at any depth.
func OptimizeProgram(p *Program) {
	p.Body = Optimize(p.Body)
	optimizeFunctions(p.Main.Locals)
}

func optimizeFunctions(scope *SymbolTable) {
	for _, s := range scope.Entries() {
		if s.Type.Category != CategoryFunction || s.Value == nil {
			continue
		}
		s.Value = Optimize(s.Value)
		optimizeFunctions(s.Type.Locals)
	}
}

// Optimize removes statements whose control flow is decided by
// constants. It returns the replacement for n, which is nil when
// nothing remains; a block is always kept.
func Optimize(n *Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case NodeBlock:
		kept := n.Children[:0]
		for _, s := range n.Children {
			s = Optimize(s)
			if s == nil {
				continue
			}
			kept = append(kept, s)
			if isJump(s) {
				break
			}
		}
		n.Children = kept
		return n

	case NodeIf:
		n.Children[1] = Optimize(n.Then())
		n.Children[2] = Optimize(n.Else())
		if cond, ok := constantCondition(n.Cond()); ok {
			if cond != 0 {
				return n.Then()
			}
			return n.Else()
		}
		return n

	case NodeWhile:
		n.Children[1] = Optimize(n.Body())
		if cond, ok := constantCondition(n.Cond()); ok && cond == 0 {
			return nil
		}
		return n

	case NodeRepeat:
		n.Children[0] = Optimize(n.Body())
		if cond, ok := constantCondition(n.Cond()); ok && cond != 0 && !hasLoopJump(n.Body()) {
			return n.Body()
		}
		return n

	case NodeFor:
		return optimizeFor(n)

	default:
		return n
	}
}

func optimizeFor(n *Node) *Node {
	n.Children[3] = Optimize(n.Body())
	from, ok1 := constantCondition(n.Children[1])
	to, ok2 := constantCondition(n.Children[2])
	if !ok1 || !ok2 {
		return n
	}
	if (!n.Downto && from > to) || (n.Downto && from < to) {
		return nil
	}
	if from != to || hasLoopJump(n.Body()) {
		return n
	}

	v := n.Children[0]
	body := n.Body()
	if body == nil || !references(body, v) {
		return body
	}
	counter := NewVariable(v.Pos, v.Name, v.Type, v.Binding)
	init, err := NewAssign(n.Pos, OpAssign, counter, n.Children[1])
	if err != nil {
		invariant("for variable %s: %v", v.Name, err)
	}
	return NewBlock(n.Pos, []*Node{init, body})
}

// constantCondition evaluates a literal integer or a reference to an
// integer constant declaration.
func constantCondition(n *Node) (int64, bool) {
	c := constantOf(n)
	if c == nil || c.Type.BaseType().Category != CategoryInteger {
		return 0, false
	}
	return c.Value.Int, true
}

func isJump(n *Node) bool {
	switch n.Kind {
	case NodeBreak, NodeContinue, NodeExit:
		return true
	default:
		return false
	}
}

// hasLoopJump reports whether n holds a break or continue that binds to
// the loop enclosing n.
func hasLoopJump(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case NodeBreak, NodeContinue:
		return true
	case NodeBlock, NodeIf:
		for _, c := range n.Children {
			if hasLoopJump(c) {
				return true
			}
		}
	}
	return false
}

// references reports whether n mentions the variable v.
func references(n *Node, v *Node) bool {
	if n == nil {
		return false
	}
	if n.Kind == NodeVariable && n.Name == v.Name && n.Binding.Table == v.Binding.Table {
		return true
	}
	if references(n.Target, v) {
		return true
	}
	for _, c := range n.Children {
		if references(c, v) {
			return true
		}
	}
	return false
}

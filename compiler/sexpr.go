package compiler

import (
	"strconv"
	"strings"
)

// ToSExpr renders a tree in the s-expression notation the tests match
// against.
func ToSExpr(node *Node) string {
	if node == nil {
		return "(block)"
	}
	switch node.Kind {
	case NodeVariable:
		return "(ident " + quote(node.Name) + ")"
	case NodeConstant:
		switch node.Type.BaseType().Category {
		case CategoryInteger:
			return "(integer " + strconv.FormatInt(node.Value.Int, 10) + ")"
		case CategoryReal:
			return "(real " + formatReal(node.Value.Real) + ")"
		case CategoryChar:
			return "(char " + quote(string(rune(byte(node.Value.Int)))) + ")"
		default:
			return "(string " + quote(node.Value.Str) + ")"
		}
	case NodeTypedConstant:
		return list("init", node.Children)
	case NodeBinary:
		left := ToSExpr(node.Left())
		right := ToSExpr(node.Right())
		return "(binary " + quote(node.Op.String()) + " " + left + " " + right + ")"
	case NodeUnary:
		return "(unary " + quote(node.Op.String()) + " " + ToSExpr(node.Operand()) + ")"
	case NodeAssign:
		left := ToSExpr(node.Left())
		right := ToSExpr(node.Right())
		return "(assign " + quote(node.Op.String()) + " " + left + " " + right + ")"
	case NodeCall:
		result := "(call " + ToSExpr(node.Target)
		for _, arg := range node.Children {
			result += " " + ToSExpr(arg)
		}
		return result + ")"
	case NodeIndex:
		return "(idx " + ToSExpr(node.Target) + " " + ToSExpr(node.Operand()) + ")"
	case NodeField:
		return "(field " + ToSExpr(node.Target) + " " + quote(node.Operand().Name) + ")"
	case NodeCast:
		return "(cast " + quote(node.Type.BaseType().String()) + " " + ToSExpr(node.Target) + ")"
	case NodeIf:
		result := "(if " + ToSExpr(node.Cond()) + " " + ToSExpr(node.Then())
		if node.Else() != nil {
			result += " " + ToSExpr(node.Else())
		}
		return result + ")"
	case NodeWhile:
		return "(while " + ToSExpr(node.Cond()) + " " + ToSExpr(node.Body()) + ")"
	case NodeRepeat:
		return "(repeat " + ToSExpr(node.Body()) + " " + ToSExpr(node.Cond()) + ")"
	case NodeFor:
		direction := "to"
		if node.Downto {
			direction = "downto"
		}
		return "(for " + ToSExpr(node.Children[0]) + " " + quote(direction) + " " +
			ToSExpr(node.Children[1]) + " " + ToSExpr(node.Children[2]) + " " + ToSExpr(node.Body()) + ")"
	case NodeBlock:
		return list("block", node.Children)
	case NodeBreak:
		return "(break)"
	case NodeContinue:
		return "(continue)"
	case NodeExit:
		return "(exit)"
	case NodeWrite:
		if node.Newline {
			return list("writeln", node.Children)
		}
		return list("write", node.Children)
	case NodeRead:
		return list("read", node.Children)
	default:
		return "(unknown)"
	}
}

func list(head string, items []*Node) string {
	result := "(" + head
	for _, item := range items {
		result += " " + ToSExpr(item)
	}
	return result + ")"
}

func quote(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return "\"" + s + "\""
}

// formatReal keeps a decimal point so the value reads back as a float.
func formatReal(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

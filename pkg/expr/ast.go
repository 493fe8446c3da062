package expr

import (
	"fmt"
	"math"
)

type node interface {
	eval(vars map[string]any) (any, error)
}

type literalNode struct {
	value any
}

func (n literalNode) eval(map[string]any) (any, error) { return n.value, nil }

// identNode resolves a variable. Unknown names evaluate to nil so rules can
// test for absent fields with `x == null`.
type identNode struct {
	name string
}

func (n identNode) eval(vars map[string]any) (any, error) {
	return vars[n.name], nil
}

type memberNode struct {
	object   node
	property string
	// path is the flattened dotted name when the chain is made only of
	// identifiers; an exact variable with that name wins over traversal.
	path string
}

func (n memberNode) eval(vars map[string]any) (any, error) {
	if n.path != "" {
		if value, ok := vars[n.path]; ok {
			return value, nil
		}
	}
	object, err := n.object.eval(vars)
	if err != nil {
		return nil, err
	}
	return property(object, n.property), nil
}

type indexNode struct {
	object node
	index  node
}

func (n indexNode) eval(vars map[string]any) (any, error) {
	object, err := n.object.eval(vars)
	if err != nil {
		return nil, err
	}
	index, err := n.index.eval(vars)
	if err != nil {
		return nil, err
	}
	if list, ok := asList(object); ok {
		pos, ok := toNumber(index)
		if !ok || pos != math.Trunc(pos) {
			return nil, fmt.Errorf("%w: list index %v is not an integer", ErrType, index)
		}
		if pos < 0 || int(pos) >= len(list) {
			return nil, nil
		}
		return list[int(pos)], nil
	}
	return property(object, toString(index)), nil
}

type arrayNode struct {
	items []node
}

func (n arrayNode) eval(vars map[string]any) (any, error) {
	out := make([]any, 0, len(n.items))
	for _, item := range n.items {
		value, err := item.eval(vars)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

type unaryNode struct {
	op      tokenKind
	operand node
}

func (n unaryNode) eval(vars map[string]any) (any, error) {
	value, err := n.operand.eval(vars)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case tokenNot:
		return !Truthy(value), nil
	case tokenMinus:
		number, err := mustNumber(value, "-")
		if err != nil {
			return nil, err
		}
		return -number, nil
	default:
		return mustNumber(value, "+")
	}
}

// logicalNode short-circuits and yields the deciding operand, so
// `discount || 0` works as a default.
type logicalNode struct {
	or    bool
	left  node
	right node
}

func (n logicalNode) eval(vars map[string]any) (any, error) {
	left, err := n.left.eval(vars)
	if err != nil {
		return nil, err
	}
	if n.or == Truthy(left) {
		return left, nil
	}
	return n.right.eval(vars)
}

type ternaryNode struct {
	cond      node
	then      node
	otherwise node
}

func (n ternaryNode) eval(vars map[string]any) (any, error) {
	cond, err := n.cond.eval(vars)
	if err != nil {
		return nil, err
	}
	if Truthy(cond) {
		return n.then.eval(vars)
	}
	return n.otherwise.eval(vars)
}

type binaryNode struct {
	op    tokenKind
	raw   string
	left  node
	right node
}

func (n binaryNode) eval(vars map[string]any) (any, error) {
	left, err := n.left.eval(vars)
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval(vars)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case tokenEq:
		return LooseEqual(left, right), nil
	case tokenNeq:
		return !LooseEqual(left, right), nil
	case tokenStrictEq:
		return strictEqual(left, right), nil
	case tokenStrictNeq:
		return !strictEqual(left, right), nil
	case tokenLt, tokenLte, tokenGt, tokenGte:
		cmp, err := compare(left, right, n.raw)
		if err != nil {
			return nil, err
		}
		switch n.op {
		case tokenLt:
			return cmp < 0, nil
		case tokenLte:
			return cmp <= 0, nil
		case tokenGt:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	case tokenPlus:
		if isText(left) || isText(right) {
			return toString(left) + toString(right), nil
		}
	}

	l, err := mustNumber(left, n.raw)
	if err != nil {
		return nil, err
	}
	r, err := mustNumber(right, n.raw)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case tokenPlus:
		return l + r, nil
	case tokenMinus:
		return l - r, nil
	case tokenStar:
		return l * r, nil
	case tokenSlash:
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return l / r, nil
	case tokenPercent:
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return math.Mod(l, r), nil
	}
	return nil, fmt.Errorf("%w: unsupported operator %q", ErrSyntax, n.raw)
}

type callNode struct {
	name string
	fn   function
	args []node
}

func (n callNode) eval(vars map[string]any) (any, error) {
	args := make([]any, 0, len(n.args))
	for _, arg := range n.args {
		value, err := arg.eval(vars)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}
	out, err := n.fn.call(args)
	if err != nil {
		return nil, fmt.Errorf("%s(): %w", n.name, err)
	}
	return out, nil
}

func property(object any, name string) any {
	switch typed := object.(type) {
	case map[string]any:
		return typed[name]
	case map[string]string:
		if value, ok := typed[name]; ok {
			return value
		}
		return nil
	case []any:
		if name == "length" {
			return float64(len(typed))
		}
	case string:
		if name == "length" {
			return float64(len([]rune(typed)))
		}
	}
	return nil
}

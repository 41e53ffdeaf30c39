package config

import (
	"fmt"
)

// Node is a sealed interface over expression tree variants.
// Only Lit, Ref, Unary, Nary, and Call implement it.
//
// Expressions arrive in the configuration as single-key operator maps
// ({"==": [{"var": "start"}, 10]}) and are compiled to this tree at
// load time, so malformed rules surface as configuration errors rather
// than evaluation-time surprises. The tree is pure data; evaluation
// lives in the expr package.
type Node interface {
	node() // Sealed - only these types implement it
}

// Lit is a literal value.
type Lit struct {
	V Value
}

func (Lit) node() {}

// Ref reads a binding path from the snapshot ({"var": "section.field"}).
type Ref struct {
	Path Path
}

func (Ref) node() {}

// Unary applies a single-argument operator (OpNot).
type Unary struct {
	Op string
	X  Node
}

func (Unary) node() {}

// Nary applies a fixed operator to its arguments in order.
// Comparison operators take exactly two arguments; OpAnd/OpOr/OpList
// and the arithmetic operators take one or more.
type Nary struct {
	Op   string
	Args []Node
}

func (Nary) node() {}

// Call invokes a whitelisted named function. There is no other
// invocation mechanism: an expression cannot name arbitrary code.
type Call struct {
	Fn   string
	Args []Node
}

func (Call) node() {}

// Operator names accepted by the parser. The set is closed - anything
// else must be a whitelisted function or the parse fails.
const (
	OpEq   = "=="
	OpNeq  = "!="
	OpGt   = ">"
	OpLt   = "<"
	OpGte  = ">="
	OpLte  = "<="
	OpAnd  = "and"
	OpOr   = "or"
	OpNot  = "not"
	OpIf   = "if"
	OpAdd  = "+"
	OpSub  = "-"
	OpMul  = "*"
	OpDiv  = "/"
	OpIn   = "in"
	OpList = "list"
)

var binaryOps = map[string]bool{
	OpEq: true, OpNeq: true, OpGt: true, OpLt: true, OpGte: true, OpLte: true,
	OpIn: true,
}

var variadicOps = map[string]bool{
	OpAnd: true, OpOr: true, OpAdd: true, OpSub: true, OpMul: true, OpDiv: true,
}

// Functions lists the names an expression may call. The evaluator
// implements exactly these; the parser rejects everything else.
var Functions = map[string]bool{
	"length":     true,
	"min":        true,
	"max":        true,
	"abs":        true,
	"contains":   true,
	"startsWith": true,
	"endsWith":   true,
	"coalesce":   true,
	"isEmpty":    true,
}

// ParseExpr compiles the JSON-logic style map form carried by the
// configuration into a Node tree.
//
// Accepted forms:
//   - {"op": [args...]}  single-key operator or function map
//   - {"var": "path"}    binding path reference
//   - scalar             literal
//   - [...]              literal list (each element parsed recursively)
func ParseExpr(raw any) (Node, error) {
	switch v := raw.(type) {
	case map[string]any:
		if len(v) != 1 {
			return nil, fmt.Errorf("expression map must have exactly one operator key, got %d", len(v))
		}
		for op, args := range v {
			return parseOp(op, args)
		}
		return nil, fmt.Errorf("unreachable")

	case []any:
		nodes, err := parseArgs(v)
		if err != nil {
			return nil, err
		}
		return Nary{Op: OpList, Args: nodes}, nil

	default:
		val, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("literal: %w", err)
		}
		return Lit{V: val}, nil
	}
}

func parseOp(op string, args any) (Node, error) {
	if op == "var" {
		path, ok := args.(string)
		if !ok {
			return nil, fmt.Errorf("var: path must be a string, got %T", args)
		}
		p, err := ParsePath(path)
		if err != nil {
			return nil, fmt.Errorf("var: %w", err)
		}
		return Ref{Path: p}, nil
	}

	if op == OpNot || op == "!" {
		// Single argument, possibly wrapped in a one-element array
		if arr, ok := args.([]any); ok {
			if len(arr) != 1 {
				return nil, fmt.Errorf("not: expected 1 argument, got %d", len(arr))
			}
			args = arr[0]
		}
		x, err := ParseExpr(args)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return Unary{Op: OpNot, X: x}, nil
	}

	arr, ok := args.([]any)
	if !ok {
		arr = []any{args}
	}
	nodes, err := parseArgs(arr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case binaryOps[op]:
		if len(nodes) != 2 {
			return nil, fmt.Errorf("%s: expected 2 arguments, got %d", op, len(nodes))
		}
		return Nary{Op: op, Args: nodes}, nil

	case variadicOps[op]:
		if len(nodes) == 0 {
			return nil, fmt.Errorf("%s: expected at least 1 argument", op)
		}
		return Nary{Op: op, Args: nodes}, nil

	case op == OpIf:
		if len(nodes) < 2 {
			return nil, fmt.Errorf("if: expected at least 2 arguments, got %d", len(nodes))
		}
		return Nary{Op: OpIf, Args: nodes}, nil

	case Functions[op]:
		return Call{Fn: op, Args: nodes}, nil

	default:
		return nil, fmt.Errorf("unknown operator or function %q", op)
	}
}

func parseArgs(arr []any) ([]Node, error) {
	nodes := make([]Node, len(arr))
	for i, elem := range arr {
		n, err := ParseExpr(elem)
		if err != nil {
			return nil, fmt.Errorf("arg[%d]: %w", i, err)
		}
		nodes[i] = n
	}
	return nodes, nil
}

// Refs collects every binding path referenced anywhere in the tree.
// The compiler uses this to check that expressions only name elements
// that exist in the configuration.
func Refs(n Node) []Path {
	var out []Path
	walkRefs(n, &out)
	return out
}

func walkRefs(n Node, out *[]Path) {
	switch v := n.(type) {
	case Ref:
		*out = append(*out, v.Path)
	case Unary:
		walkRefs(v.X, out)
	case Nary:
		for _, a := range v.Args {
			walkRefs(a, out)
		}
	case Call:
		for _, a := range v.Args {
			walkRefs(a, out)
		}
	}
}

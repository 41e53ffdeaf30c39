// Package expr evaluates the configuration's dependency expressions
// against a form state snapshot.
//
// The interpreter is sandboxed by construction: the Node tree only
// encodes a fixed operator set and whitelisted function names, so an
// expression can read element values from the supplied snapshot and
// nothing else. There is no reflection, no I/O, and no host-language
// code evaluation.
package expr

import (
	"fmt"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/state"
)

// EvalError reports a failure while evaluating an expression: an
// unknown reference, a type mismatch, or bad function arguments.
// The engine recovers these into per-element dependency errors; they
// never abort a transaction.
type EvalError struct {
	Expr   string
	Detail string
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("evaluate %s: %s", e.Expr, e.Detail)
	}
	return e.Detail
}

func evalErrf(n config.Node, format string, args ...any) *EvalError {
	return &EvalError{Expr: Format(n), Detail: fmt.Sprintf(format, args...)}
}

// Evaluator resolves binding paths and evaluates expression trees
// against snapshots. It holds only the configuration index; it is
// stateless across calls and safe for concurrent use.
type Evaluator struct {
	idx *config.Index
}

// New creates an evaluator over a configuration index.
func New(idx *config.Index) *Evaluator {
	return &Evaluator{idx: idx}
}

// Resolve traverses a binding path against a snapshot.
//
// The head of the path is an element id or a "sectionID.componentID"
// alias; remaining segments index into the element's object value.
// Missing segments return (nil, false) - Absent - rather than an
// error, so an optional field never aborts a larger evaluation.
func (e *Evaluator) Resolve(p config.Path, snap *state.Snapshot) (config.Value, bool) {
	id, rest, ok := e.resolveHead(p)
	if !ok {
		return nil, false
	}
	v, ok := snap.Value(id)
	if !ok {
		return nil, false
	}
	for _, seg := range rest {
		obj, isObj := v.(config.Object)
		if !isObj {
			return nil, false
		}
		v, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return v, true
}

// resolveHead maps the leading path segments to an element id and
// returns the remaining segments. Tries, in order: bare element id,
// then the two-segment section.component alias.
func (e *Evaluator) resolveHead(p config.Path) (config.ElementID, []string, bool) {
	segs := p.Segments()
	if c := e.idx.Component(config.ElementID(segs[0])); c != nil {
		return c.ID, segs[1:], true
	}
	if len(segs) >= 2 {
		if id, ok := e.idx.ResolveAlias(segs[0] + "." + segs[1]); ok {
			return id, segs[2:], true
		}
	}
	return "", nil, false
}

// Evaluate computes an expression tree's value against a snapshot.
//
// Absent references evaluate to nil and behave as falsy/empty in the
// enclosing operator. References whose head names no element in the
// configuration are an EvalError: that is broken configuration logic,
// not missing user data.
func (e *Evaluator) Evaluate(n config.Node, snap *state.Snapshot) (config.Value, error) {
	switch v := n.(type) {
	case config.Lit:
		return v.V, nil

	case config.Ref:
		if _, _, ok := e.resolveHead(v.Path); !ok {
			return nil, evalErrf(n, "reference %q names no element in the configuration", v.Path)
		}
		val, ok := e.Resolve(v.Path, snap)
		if !ok {
			return nil, nil // Absent - falsy, not an error
		}
		return val, nil

	case config.Unary:
		x, err := e.Evaluate(v.X, snap)
		if err != nil {
			return nil, err
		}
		// OpNot is the only unary operator
		return config.Bool(!config.Truthy(x)), nil

	case config.Nary:
		return e.evalNary(v, snap)

	case config.Call:
		return e.evalCall(v, snap)

	default:
		return nil, evalErrf(n, "unknown node type %T", n)
	}
}

// EvaluateBool evaluates an expression and coerces the result to a
// boolean via truthiness. Used for visibility and enablement.
func (e *Evaluator) EvaluateBool(n config.Node, snap *state.Snapshot) (bool, error) {
	v, err := e.Evaluate(n, snap)
	if err != nil {
		return false, err
	}
	return config.Truthy(v), nil
}

func (e *Evaluator) evalNary(n config.Nary, snap *state.Snapshot) (config.Value, error) {
	switch n.Op {
	case config.OpAnd:
		for _, arg := range n.Args {
			v, err := e.Evaluate(arg, snap)
			if err != nil {
				return nil, err
			}
			if !config.Truthy(v) {
				return config.Bool(false), nil
			}
		}
		return config.Bool(true), nil

	case config.OpOr:
		for _, arg := range n.Args {
			v, err := e.Evaluate(arg, snap)
			if err != nil {
				return nil, err
			}
			if config.Truthy(v) {
				return config.Bool(true), nil
			}
		}
		return config.Bool(false), nil

	case config.OpIf:
		return e.evalIf(n, snap)

	case config.OpList:
		list := make(config.List, len(n.Args))
		for i, arg := range n.Args {
			v, err := e.Evaluate(arg, snap)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil

	case config.OpEq, config.OpNeq:
		l, err := e.Evaluate(n.Args[0], snap)
		if err != nil {
			return nil, err
		}
		r, err := e.Evaluate(n.Args[1], snap)
		if err != nil {
			return nil, err
		}
		eq := config.Equal(l, r)
		if n.Op == config.OpNeq {
			eq = !eq
		}
		return config.Bool(eq), nil

	case config.OpGt, config.OpLt, config.OpGte, config.OpLte:
		return e.evalCompare(n, snap)

	case config.OpAdd, config.OpSub, config.OpMul, config.OpDiv:
		return e.evalArith(n, snap)

	case config.OpIn:
		return e.evalIn(n, snap)

	default:
		return nil, evalErrf(n, "unknown operator %q", n.Op)
	}
}

// evalIf processes condition/result pairs with an optional trailing
// else: [c1, t1, c2, t2, ..., else].
func (e *Evaluator) evalIf(n config.Nary, snap *state.Snapshot) (config.Value, error) {
	args := n.Args
	for len(args) >= 2 {
		cond, err := e.Evaluate(args[0], snap)
		if err != nil {
			return nil, err
		}
		if config.Truthy(cond) {
			return e.Evaluate(args[1], snap)
		}
		args = args[2:]
	}
	if len(args) == 1 {
		return e.Evaluate(args[0], snap)
	}
	return nil, nil
}

// evalCompare applies a relational operator. A nil or non-numeric
// operand makes the comparison false rather than failing: comparing
// against an untouched field is an expected state, not an error.
func (e *Evaluator) evalCompare(n config.Nary, snap *state.Snapshot) (config.Value, error) {
	l, err := e.Evaluate(n.Args[0], snap)
	if err != nil {
		return nil, err
	}
	r, err := e.Evaluate(n.Args[1], snap)
	if err != nil {
		return nil, err
	}
	ln, lok := config.AsNumber(l)
	rn, rok := config.AsNumber(r)
	if !lok || !rok {
		return config.Bool(false), nil
	}
	var res bool
	switch n.Op {
	case config.OpGt:
		res = ln > rn
	case config.OpLt:
		res = ln < rn
	case config.OpGte:
		res = ln >= rn
	case config.OpLte:
		res = ln <= rn
	}
	return config.Bool(res), nil
}

// evalArith folds a numeric operator over the arguments. A nil operand
// propagates nil (absent in, absent out); a non-numeric operand or a
// division by zero is an EvalError.
func (e *Evaluator) evalArith(n config.Nary, snap *state.Snapshot) (config.Value, error) {
	var acc float64
	for i, arg := range n.Args {
		v, err := e.Evaluate(arg, snap)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		f, ok := config.AsNumber(v)
		if !ok {
			return nil, evalErrf(n, "operand %d of %q is not numeric", i, n.Op)
		}
		if i == 0 {
			acc = f
			continue
		}
		switch n.Op {
		case config.OpAdd:
			acc += f
		case config.OpSub:
			acc -= f
		case config.OpMul:
			acc *= f
		case config.OpDiv:
			if f == 0 {
				return nil, evalErrf(n, "division by zero")
			}
			acc /= f
		}
	}
	return config.Number(acc), nil
}

// evalIn checks membership of the needle in a list or substring
// presence in a string.
func (e *Evaluator) evalIn(n config.Nary, snap *state.Snapshot) (config.Value, error) {
	needle, err := e.Evaluate(n.Args[0], snap)
	if err != nil {
		return nil, err
	}
	hay, err := e.Evaluate(n.Args[1], snap)
	if err != nil {
		return nil, err
	}
	switch h := hay.(type) {
	case config.List:
		for _, elem := range h {
			if config.Equal(needle, elem) {
				return config.Bool(true), nil
			}
		}
		return config.Bool(false), nil
	case config.String:
		ns, ok := config.AsString(needle)
		if !ok {
			return config.Bool(false), nil
		}
		return config.Bool(containsString(string(h), ns)), nil
	case nil:
		return config.Bool(false), nil
	default:
		return nil, evalErrf(n, "second argument of \"in\" must be a list or string, got %T", hay)
	}
}

package expr

import (
	"strings"
	"unicode/utf8"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/state"
)

// evalCall dispatches a whitelisted function. The parser only produces
// Call nodes for names in config.Functions, but the check is repeated
// here so a hand-built tree cannot escape the sandbox either.
func (e *Evaluator) evalCall(n config.Call, snap *state.Snapshot) (config.Value, error) {
	if !config.Functions[n.Fn] {
		return nil, evalErrf(n, "function %q is not whitelisted", n.Fn)
	}

	args := make([]config.Value, len(n.Args))
	for i, arg := range n.Args {
		v, err := e.Evaluate(arg, snap)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch n.Fn {
	case "length":
		if len(args) != 1 {
			return nil, evalErrf(n, "length expects 1 argument, got %d", len(args))
		}
		return config.Number(valueLength(args[0])), nil

	case "min", "max":
		if len(args) == 0 {
			return nil, evalErrf(n, "%s expects at least 1 argument", n.Fn)
		}
		var best float64
		found := false
		for i, a := range args {
			f, ok := config.AsNumber(a)
			if !ok {
				if a == nil {
					continue // absent operands are skipped
				}
				return nil, evalErrf(n, "argument %d of %s is not numeric", i, n.Fn)
			}
			if !found || (n.Fn == "min" && f < best) || (n.Fn == "max" && f > best) {
				best = f
				found = true
			}
		}
		if !found {
			return nil, nil
		}
		return config.Number(best), nil

	case "abs":
		if len(args) != 1 {
			return nil, evalErrf(n, "abs expects 1 argument, got %d", len(args))
		}
		f, ok := config.AsNumber(args[0])
		if !ok {
			if args[0] == nil {
				return nil, nil
			}
			return nil, evalErrf(n, "argument of abs is not numeric")
		}
		if f < 0 {
			f = -f
		}
		return config.Number(f), nil

	case "contains":
		return stringPair(n, args, strings.Contains)

	case "startsWith":
		return stringPair(n, args, strings.HasPrefix)

	case "endsWith":
		return stringPair(n, args, strings.HasSuffix)

	case "coalesce":
		for _, a := range args {
			if a == nil {
				continue
			}
			if _, isNull := a.(config.Null); isNull {
				continue
			}
			return a, nil
		}
		return nil, nil

	case "isEmpty":
		if len(args) != 1 {
			return nil, evalErrf(n, "isEmpty expects 1 argument, got %d", len(args))
		}
		return config.Bool(!config.Truthy(args[0])), nil

	default:
		return nil, evalErrf(n, "function %q not implemented", n.Fn)
	}
}

// valueLength returns the rune count of a string or the element count
// of a collection. Absent and scalar values have length 0.
func valueLength(v config.Value) int {
	switch val := v.(type) {
	case config.String:
		return utf8.RuneCountInString(string(val))
	case config.List:
		return len(val)
	case config.Object:
		return len(val)
	default:
		return 0
	}
}

// stringPair applies a two-string predicate. Nil operands make the
// predicate false.
func stringPair(n config.Call, args []config.Value, pred func(string, string) bool) (config.Value, error) {
	if len(args) != 2 {
		return nil, evalErrf(n, "%s expects 2 arguments, got %d", n.Fn, len(args))
	}
	if args[0] == nil || args[1] == nil {
		return config.Bool(false), nil
	}
	s, sok := config.AsString(args[0])
	sub, subok := config.AsString(args[1])
	if !sok || !subok {
		return nil, evalErrf(n, "%s expects string arguments", n.Fn)
	}
	return config.Bool(pred(s, sub)), nil
}

func containsString(s, sub string) bool {
	return strings.Contains(s, sub)
}

package expr

import (
	"fmt"
	"strings"

	"github.com/roach88/formic/internal/config"
)

// Format renders an expression tree back to a compact human-readable
// string for diagnostics. This is the form carried in dependency
// errors so an operator can see which rule broke.
func Format(n config.Node) string {
	switch v := n.(type) {
	case config.Lit:
		b, err := config.MarshalCanonical(v.V)
		if err != nil {
			return fmt.Sprintf("%v", v.V)
		}
		return string(b)

	case config.Ref:
		return fmt.Sprintf("var(%s)", v.Path)

	case config.Unary:
		return fmt.Sprintf("not(%s)", Format(v.X))

	case config.Nary:
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			parts[i] = Format(a)
		}
		if len(parts) == 2 && v.Op != config.OpIf && v.Op != config.OpList {
			return fmt.Sprintf("(%s %s %s)", parts[0], v.Op, parts[1])
		}
		return fmt.Sprintf("%s(%s)", v.Op, strings.Join(parts, ", "))

	case config.Call:
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			parts[i] = Format(a)
		}
		return fmt.Sprintf("%s(%s)", v.Fn, strings.Join(parts, ", "))

	default:
		return fmt.Sprintf("%T", n)
	}
}

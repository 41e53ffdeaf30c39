package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/formic/internal/compiler"
	"github.com/roach88/formic/internal/config"
)

// Error codes for loading failures, distinct from the compiler's
// E-codes so callers can tell file problems from configuration
// problems.
const (
	ErrCodeNotFound  = "L001" // file does not exist
	ErrCodeReadError = "L002" // file exists but cannot be read
	ErrCodeSchema    = "L003" // document fails the structural schema
	ErrCodeGeneric   = "L000"
)

//go:embed schema.cue
var configSchema string

// LoadError is a file or schema problem found before compilation.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadResult is a successfully loaded and compiled configuration.
type LoadResult struct {
	Config *config.Config
	Raw    []byte
}

// LoadConfig reads a JSON configuration file, checks it against the
// embedded structural schema, and compiles it. Schema violations come
// back as LoadErrors with source positions; semantic violations come
// back as compiler.ConfigErrors.
func LoadConfig(path string) (*LoadResult, []error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("configuration file not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeReadError, Message: fmt.Sprintf("reading %s: %v", path, err)}}
	}

	if errs := checkSchema(path, data); len(errs) > 0 {
		return nil, errs
	}

	cfg, cfgErrs := compiler.Compile(data)
	if len(cfgErrs) > 0 {
		errs := make([]error, 0, len(cfgErrs))
		for _, e := range cfgErrs {
			errs = append(errs, e)
		}
		return nil, errs
	}

	return &LoadResult{Config: cfg, Raw: data}, nil
}

// checkSchema unifies the JSON document with the embedded CUE schema.
func checkSchema(path string, data []byte) []error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(configSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("internal schema error: %v", err)}}
	}

	expr, err := cuejson.Extract(path, data)
	if err != nil {
		return []error{&LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("parsing JSON: %v", err)}}
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return []error{&LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("building document: %v", err)}}
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var out []error
		for _, e := range cueerrors.Errors(err) {
			pos := e.Position()
			msg := e.Error()
			if pos.IsValid() {
				msg = fmt.Sprintf("%s:%d:%d: %s", pos.Filename(), pos.Line(), pos.Column(), e.Error())
			}
			out = append(out, &LoadError{Code: ErrCodeSchema, Message: msg})
		}
		return out
	}
	return nil
}

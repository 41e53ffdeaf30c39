package compiler

import (
	"log/slog"

	"github.com/roach88/formic/internal/config"
)

// Compile decodes raw configuration JSON and runs every static check.
// On success the returned configuration is safe to hand to the engine.
// Any returned error is fatal; there are no warnings.
func Compile(data []byte) (*config.Config, []ConfigError) {
	cfg, errs := Decode(data)
	if len(errs) > 0 {
		return nil, errs
	}
	if errs := CompileConfig(cfg); len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

// CompileConfig validates an already-built configuration model.
// Used by Compile and by callers that construct configurations
// programmatically.
func CompileConfig(cfg *config.Config) []ConfigError {
	errs := Validate(cfg)
	errs = append(errs, AnalyzeCycles(cfg)...)

	if len(errs) > 0 {
		slog.Debug("configuration rejected",
			"config", cfg.ID,
			"errors", len(errs),
		)
	}
	return errs
}

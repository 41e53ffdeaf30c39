package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/engine"
	"github.com/roach88/formic/internal/state"
)

// Replay rebuilds form state by re-applying a recorded session through
// a fresh engine for the same configuration. Only update, reset, and
// validate_all rows are re-applied; async rows are results of
// validators that are not re-run during replay, so they are skipped
// and noted.
//
// The journal must have been recorded against the same configuration:
// rows are selected by the configuration fingerprint, and an empty
// journal for that fingerprint is an error rather than a silent empty
// snapshot.
func (j *Journal) Replay(ctx context.Context, cfg *config.Config, opts ...engine.Option) (*state.Snapshot, error) {
	hash := cfg.Fingerprint()
	entries, err := j.List(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("replay: journal has no transactions for configuration %s (hash %s)", cfg.ID, hash)
	}

	// The replay engine journals nothing: replaying must not append to
	// the log it is reading.
	eng, err := engine.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer eng.Stop()

	applied, skipped := 0, 0
	for _, entry := range entries {
		switch entry.Kind {
		case "update":
			if _, err := eng.UpdateValue(entry.ElementID, entry.Value); err != nil {
				return nil, fmt.Errorf("replay transaction %s: %w", entry.Token, err)
			}
			applied++
		case "reset":
			if _, err := eng.Reset(); err != nil {
				return nil, fmt.Errorf("replay transaction %s: %w", entry.Token, err)
			}
			applied++
		case "validate_all":
			if _, err := eng.ValidateAll(); err != nil {
				return nil, fmt.Errorf("replay transaction %s: %w", entry.Token, err)
			}
			applied++
		case "async":
			// Async validator results are not reproducible offline
			skipped++
		default:
			return nil, fmt.Errorf("replay transaction %s: unknown kind %q", entry.Token, entry.Kind)
		}
	}

	slog.Info("journal replayed",
		"config", cfg.ID,
		"applied", applied,
		"skipped", skipped,
		"final_version", eng.Snapshot().Version,
	)
	return eng.Snapshot(), nil
}

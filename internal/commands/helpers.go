// Package commands implements the CLI subcommands for the ltcfsync binary.
package commands

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ugrc/ltcfsync/internal/engine"
	"github.com/ugrc/ltcfsync/internal/geocode"
	"github.com/ugrc/ltcfsync/internal/provider"
	"github.com/ugrc/ltcfsync/internal/provider/feature"
	"github.com/ugrc/ltcfsync/internal/provider/memory"
	"github.com/ugrc/ltcfsync/pkg/types"
)

// newStore creates the configured storage backend.
func newStore(cfg *types.ProjectConfig) (provider.Store, error) {
	switch cfg.Provider {
	case "feature":
		fc, ok := cfg.Feature.(*feature.Config)
		if !ok || fc == nil {
			return nil, fmt.Errorf("feature config is required when provider is feature")
		}
		return feature.New(*fc)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// newLogger builds the run logger. Verbose switches to debug level.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildEngine wires the store, geocoding pool, and confirmer into an engine.
func buildEngine(cfg *types.ProjectConfig, confirm engine.Confirmer, logger *slog.Logger) (*engine.Engine, provider.Store, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	client := geocode.NewClient(cfg.Geocoder)
	pool := geocode.NewPool(client, cfg.Geocoder.Concurrency, logger)

	return engine.New(store, pool, confirm, cfg.Identity, cfg.Schema, logger), store, nil
}

// consoleConfirmer reads a y/n answer from stdin.
type consoleConfirmer struct{}

func (consoleConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// pickConfirmer returns the auto-approver when --yes is set.
func pickConfirmer(yes bool) engine.Confirmer {
	if yes {
		return engine.AutoConfirmer{}
	}
	return consoleConfirmer{}
}

package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/backdate/internal/core/analyze"
	"github.com/colonyops/backdate/internal/core/config"
	"github.com/colonyops/backdate/internal/core/ledger"
	"github.com/colonyops/backdate/internal/core/plan"
	"github.com/colonyops/backdate/internal/core/scan"
)

// ledgerStore returns the ledger store beside the configured repository.
func ledgerStore(cfg *config.Config) *ledger.Store {
	path := filepath.Join(cfg.RepoPath, ledger.Filename)
	return ledger.NewStore(path, log.With().Str("component", "ledger").Logger())
}

// buildManifest produces the manifest for the configured repository.
//
// If an interrupted run left an incomplete ledger behind, its embedded
// manifest snapshot is reused so the resumed plan is byte-identical to the
// original; regenerating would reshuffle files and drift from the recorded
// progress. Otherwise files are scanned, the schedule is sanity-checked,
// and a fresh plan is built.
func buildManifest(flags *Flags, cfg *config.Config) (plan.Manifest, error) {
	led := ledgerStore(cfg)
	if saved, err := led.SavedManifest(); err != nil {
		return nil, err
	} else if saved != nil {
		log.Info().Int("commits", len(saved)).Msg("detected interrupted execution, resuming saved plan")
		return saved, nil
	}

	scanner := scan.New(cfg.Patterns, log.With().Str("component", "scan").Logger())
	files, err := scanner.Scan(cfg.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("scan files: %w", err)
	}

	planner := plan.New(cfg.PlanOptions(), flags.Rand(cfg), nil)
	manifest, err := planner.Plan(files)
	if err != nil {
		return nil, err
	}

	if err := analyze.CheckDensity(len(manifest), cfg.Window()); err != nil {
		return nil, err
	}
	analyze.WarnLoad(log.Logger, len(files), cfg.Window())

	return manifest, nil
}

package impex

import (
	"context"
	"fmt"

	"github.com/finalbiome/finalbiome-impex/internal/errs"
	"github.com/finalbiome/finalbiome-impex/internal/gamespec"
	"github.com/finalbiome/finalbiome-impex/internal/replay"
)

// Import loads the game spec at cfg.Path and replays it. The game spec is
// checked before the first transaction is submitted.
func Import(ctx context.Context, cfg ImportConfig) (*replay.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: failed to validate config: %w", errs.ErrValidation, err)
	}
	log := cfg.Logger

	snap, err := gamespec.Load(cfg.Path)
	if err != nil {
		return nil, err
	}
	if err := replay.Validate(snap); err != nil {
		return nil, err
	}

	o, err := replay.New(replay.Config{
		Logger:             log,
		Submitter:          cfg.Submitter,
		OrganizationSigner: cfg.OrganizationSigner,
		ManagerSigner:      cfg.ManagerSigner,
		OnTransaction:      cfg.OnTransaction,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Importing game spec", "path", cfg.Path, "version", snap.Version, "stateVersion", snap.StateVersion)
	if cfg.OnStart != nil {
		cfg.OnStart(snap, o.TransactionCount(snap))
	}
	return o.Run(ctx, snap)
}

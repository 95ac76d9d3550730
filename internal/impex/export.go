// Package impex runs a whole export or import: it wires the node client,
// the collectors, the game spec file and the replay together.
package impex

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alitto/pond/v2"
	"github.com/finalbiome/finalbiome-impex/internal/collector"
	"github.com/finalbiome/finalbiome-impex/internal/errs"
	"github.com/finalbiome/finalbiome-impex/internal/gamespec"
	"github.com/finalbiome/finalbiome-impex/internal/metrics"
	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
)

// Export reads the configuration of an organization at the node's latest
// block and writes it to cfg.Path. Nothing is written unless every part
// required by the scope was read.
func Export(ctx context.Context, cfg ExportConfig) (*gamespec.Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: failed to validate config: %w", errs.ErrValidation, err)
	}
	log := cfg.Logger

	if !cfg.Overwrite {
		if _, err := os.Stat(cfg.Path); err == nil {
			return nil, fmt.Errorf("%w: %w: %s", errs.ErrIO, gamespec.ErrFileExists, cfg.Path)
		}
	}

	at, err := cfg.Node.BlockHash(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get block hash: %w", errs.ErrIO, err)
	}
	version, err := cfg.Node.SystemVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get node version: %w", errs.ErrIO, err)
	}
	log.Info("Exporting game spec", "organization", cfg.Organization, "stateVersion", at, "nodeVersion", version, "scope", cfg.Scope)

	c, err := collector.New(collector.Config{
		Logger:       log,
		State:        cfg.Node,
		Organization: cfg.Organization,
		StateVersion: at,
		PageSize:     cfg.PageSize,
	})
	if err != nil {
		return nil, err
	}

	b := gamespec.NewBuilder(cfg.Scope).Version(version).StateVersion(at)
	if err := collect(ctx, c, b, cfg.Scope, cfg.Parallelism); err != nil {
		return nil, err
	}

	snap, err := b.Build()
	if err != nil {
		metrics.Errors.WithLabelValues(metrics.ErrorTypeBuild).Inc()
		return nil, err
	}
	if err := gamespec.Save(cfg.Path, snap, cfg.Overwrite); err != nil {
		return nil, err
	}
	log.Info("Game spec exported", "path", cfg.Path,
		"members", len(snap.OrganizationMembers),
		"fungibleAssets", len(snap.FungibleAssets),
		"nonFungibleClasses", len(snap.NonFungibleClasses),
		"attributes", len(snap.Attributes))
	return snap, nil
}

// collected holds the results of the collectors. Every collector writes
// its own field.
type collected struct {
	details    *finalbiome.OrganizationDetails
	members    []ledger.AccountID
	assets     map[finalbiome.FungibleAssetID]finalbiome.FungibleAssetDetails
	classes    map[finalbiome.NonFungibleClassID]finalbiome.ClassDetails
	attributes []finalbiome.ClassAttribute
}

// collect runs the collectors the scope needs and hands their results to
// the builder.
func collect(ctx context.Context, c *collector.Collector, b *gamespec.Builder, scope gamespec.Scope, parallelism int) error {
	var res collected
	tasks := []func(ctx context.Context) error{
		func(ctx context.Context) (err error) {
			res.details, err = c.OrganizationDetails(ctx)
			return err
		},
	}
	if scope == gamespec.ScopeFull {
		tasks = append(tasks,
			func(ctx context.Context) (err error) {
				res.members, err = c.Members(ctx)
				return err
			},
			func(ctx context.Context) (err error) {
				res.assets, err = c.FungibleAssets(ctx)
				return err
			},
			func(ctx context.Context) (err error) {
				res.classes, err = c.NonFungibleClasses(ctx)
				return err
			},
			func(ctx context.Context) (err error) {
				res.attributes, err = c.Attributes(ctx)
				return err
			},
		)
	}

	if parallelism > 1 {
		// The first failure stops the collectors still paging.
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		pool := pond.NewPool(parallelism)
		defer pool.StopAndWait()
		group := pool.NewGroupContext(ctx)
		for _, task := range tasks {
			group.SubmitErr(func() error {
				err := task(ctx)
				if err != nil {
					cancel()
				}
				return err
			})
		}
		if err := group.Wait(); err != nil {
			if errs.Kind(err) == nil && errors.Is(err, context.Canceled) {
				return fmt.Errorf("%w: export canceled: %w", errs.ErrIO, err)
			}
			return err
		}
	} else {
		for _, task := range tasks {
			if err := task(ctx); err != nil {
				return err
			}
		}
	}

	b.OrganizationDetails(res.details)
	if scope == gamespec.ScopeFull {
		b.OrganizationMembers(res.members).
			FungibleAssets(res.assets).
			NonFungibleClasses(res.classes).
			Attributes(res.attributes)
	}
	return nil
}

// Package collector reads the game spec entities of one organization from
// the node's storage, pinned to one state version.
package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finalbiome/finalbiome-impex/internal/errs"
	"github.com/finalbiome/finalbiome-impex/internal/metrics"
	"github.com/finalbiome/finalbiome-impex/internal/scanner"
	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/finalbiome/finalbiome-impex/pkg/scale"
)

const (
	entityOrganization = "organization"
	entityFungible     = "fungible_asset"
	entityClass        = "non_fungible_class"
	entityAttribute    = "attribute"
)

// Collector is safe for concurrent use; every call runs its own scans.
type Collector struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Collector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: failed to validate config: %w", errs.ErrValidation, err)
	}
	return &Collector{
		log: cfg.Logger.With("organization", cfg.Organization, "stateVersion", cfg.StateVersion),
		cfg: cfg,
	}, nil
}

func (c *Collector) scan(ctx context.Context, prefix ledger.StorageKey) ([]ledger.StorageKey, error) {
	return scanner.New(c.cfg.State, prefix, c.cfg.StateVersion, scanner.WithPageSize(c.cfg.PageSize)).All(ctx)
}

type decodable[T any] interface {
	*T
	scale.Decodable
}

// hydrate reads and decodes the value stored at key. An absent value is
// ErrNotFound.
func hydrate[T any, P decodable[T]](ctx context.Context, c *Collector, key ledger.StorageKey, entity string, id any) (T, error) {
	var out T
	data, err := c.cfg.State.GetStorage(ctx, key, c.cfg.StateVersion)
	if err != nil {
		metrics.Errors.WithLabelValues(metrics.ErrorTypeHydrate).Inc()
		return out, fmt.Errorf("%w: failed to read %s %v: %w", errs.ErrIO, entity, id, err)
	}
	if data == nil {
		metrics.Errors.WithLabelValues(metrics.ErrorTypeHydrate).Inc()
		return out, fmt.Errorf("%w: %s %v", errs.ErrNotFound, entity, id)
	}
	if err := P(&out).DecodeSCALE(scale.NewDecoder(data)); err != nil {
		metrics.Errors.WithLabelValues(metrics.ErrorTypeHydrate).Inc()
		return out, fmt.Errorf("%w: failed to decode %s %v: %w", errs.ErrIO, entity, id, err)
	}
	metrics.EntitiesHydrated.WithLabelValues(entity).Inc()
	return out, nil
}

// OrganizationDetails reads the details of the organization.
func (c *Collector) OrganizationDetails(ctx context.Context) (*finalbiome.OrganizationDetails, error) {
	details, err := hydrate[finalbiome.OrganizationDetails](ctx, c, finalbiome.OrganizationKey(c.cfg.Organization), entityOrganization, c.cfg.Organization)
	if err != nil {
		return nil, err
	}
	c.log.Debug("Organization found", "name", details.Name)
	return &details, nil
}

// Members enumerates the members of the organization.
func (c *Collector) Members(ctx context.Context) ([]ledger.AccountID, error) {
	keys, err := c.scan(ctx, finalbiome.MembersOfPrefix(c.cfg.Organization))
	if err != nil {
		return nil, err
	}
	members := make([]ledger.AccountID, 0, len(keys))
	for _, key := range keys {
		member, err := finalbiome.MemberFromKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrIO, err)
		}
		members = append(members, member)
	}
	c.log.Debug("Members found", "count", len(members))
	return members, nil
}

// FungibleAssetIDs enumerates the fungible assets of the organization.
func (c *Collector) FungibleAssetIDs(ctx context.Context) ([]finalbiome.FungibleAssetID, error) {
	keys, err := c.scan(ctx, finalbiome.AssetsOfPrefix(c.cfg.Organization))
	if err != nil {
		return nil, err
	}
	ids := make([]finalbiome.FungibleAssetID, 0, len(keys))
	for _, key := range keys {
		id, err := finalbiome.FungibleAssetIDFromKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrIO, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FungibleAssets enumerates the fungible assets of the organization and
// reads their details.
func (c *Collector) FungibleAssets(ctx context.Context) (map[finalbiome.FungibleAssetID]finalbiome.FungibleAssetDetails, error) {
	ids, err := c.FungibleAssetIDs(ctx)
	if err != nil {
		return nil, err
	}
	assets := make(map[finalbiome.FungibleAssetID]finalbiome.FungibleAssetDetails, len(ids))
	for _, id := range ids {
		details, err := hydrate[finalbiome.FungibleAssetDetails](ctx, c, finalbiome.AssetKey(id), entityFungible, id)
		if err != nil {
			return nil, err
		}
		assets[id] = details
	}
	c.log.Debug("Fungible assets found", "count", len(assets))
	return assets, nil
}

// NonFungibleClassIDs enumerates the non-fungible classes of the
// organization.
func (c *Collector) NonFungibleClassIDs(ctx context.Context) ([]finalbiome.NonFungibleClassID, error) {
	keys, err := c.scan(ctx, finalbiome.ClassAccountsPrefix(c.cfg.Organization))
	if err != nil {
		return nil, err
	}
	ids := make([]finalbiome.NonFungibleClassID, 0, len(keys))
	for _, key := range keys {
		id, err := finalbiome.ClassIDFromKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrIO, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// NonFungibleClasses enumerates the non-fungible classes of the
// organization and reads their details.
func (c *Collector) NonFungibleClasses(ctx context.Context) (map[finalbiome.NonFungibleClassID]finalbiome.ClassDetails, error) {
	ids, err := c.NonFungibleClassIDs(ctx)
	if err != nil {
		return nil, err
	}
	classes := make(map[finalbiome.NonFungibleClassID]finalbiome.ClassDetails, len(ids))
	for _, id := range ids {
		details, err := hydrate[finalbiome.ClassDetails](ctx, c, finalbiome.ClassKey(id), entityClass, id)
		if err != nil {
			return nil, err
		}
		classes[id] = details
	}
	c.log.Debug("Non-fungible classes found", "count", len(classes))
	return classes, nil
}

// Attributes reads the attributes of every class of the organization,
// flattened in class order.
func (c *Collector) Attributes(ctx context.Context) ([]finalbiome.ClassAttribute, error) {
	classes, err := c.NonFungibleClassIDs(ctx)
	if err != nil {
		return nil, err
	}
	var out []finalbiome.ClassAttribute
	for _, class := range classes {
		prefix := finalbiome.ClassAttributesPrefix(class)
		keys, err := c.scan(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			name, err := finalbiome.AttributeKeyFromKey(prefix, key)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errs.ErrIO, err)
			}
			value, err := hydrate[finalbiome.AttributeValue](ctx, c, key, entityAttribute, fmt.Sprintf("%d/%s", class, name))
			if err != nil {
				return nil, err
			}
			out = append(out, finalbiome.ClassAttribute{Class: class, Key: name, Value: value})
		}
	}
	c.log.Debug("Attributes found", "count", len(out), "classes", len(classes))
	return out, nil
}

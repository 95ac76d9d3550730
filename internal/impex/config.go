package impex

import (
	"context"
	"errors"
	"log/slog"

	"github.com/finalbiome/finalbiome-impex/internal/collector"
	"github.com/finalbiome/finalbiome-impex/internal/gamespec"
	"github.com/finalbiome/finalbiome-impex/internal/replay"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
)

var (
	ErrLoggerRequired             = errors.New("logger is required")
	ErrNodeRequired               = errors.New("node is required")
	ErrOrganizationRequired       = errors.New("organization is required")
	ErrPathRequired               = errors.New("game spec path is required")
	ErrSubmitterRequired          = errors.New("submitter is required")
	ErrOrganizationSignerRequired = errors.New("organization signer is required")
)

const defaultParallelism = 1

// Node is the part of the node client used by export.
type Node interface {
	collector.StateClient
	BlockHash(ctx context.Context) (ledger.Hash, error)
	SystemVersion(ctx context.Context) (string, error)
}

type ExportConfig struct {
	Logger       *slog.Logger
	Node         Node
	Organization ledger.AccountID
	Path         string
	Overwrite    bool
	Scope        gamespec.Scope

	// Parallelism is the number of collections read concurrently. 1 reads
	// them one after the other.
	Parallelism int
	PageSize    uint32
}

func (c *ExportConfig) Validate() error {
	if c.Logger == nil {
		return ErrLoggerRequired
	}
	if c.Node == nil {
		return ErrNodeRequired
	}
	if c.Organization.IsZero() {
		return ErrOrganizationRequired
	}
	if c.Path == "" {
		return ErrPathRequired
	}
	if c.Scope != gamespec.ScopeFull && c.Scope != gamespec.ScopeOrganization {
		return gamespec.ErrInvalidScope
	}
	if c.Parallelism <= 0 {
		c.Parallelism = defaultParallelism
	}
	return nil
}

type ImportConfig struct {
	Logger             *slog.Logger
	Submitter          replay.Submitter
	Path               string
	OrganizationSigner ledger.Signer
	ManagerSigner      ledger.Signer

	// OnStart is called once the game spec is loaded and checked, with the
	// number of transactions the import submits.
	OnStart       func(snap *gamespec.Snapshot, transactions int)
	OnTransaction func(replay.Step)
}

func (c *ImportConfig) Validate() error {
	if c.Logger == nil {
		return ErrLoggerRequired
	}
	if c.Submitter == nil {
		return ErrSubmitterRequired
	}
	if c.Path == "" {
		return ErrPathRequired
	}
	if c.OrganizationSigner == nil {
		return ErrOrganizationSignerRequired
	}
	return nil
}

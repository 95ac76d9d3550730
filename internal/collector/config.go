package collector

import (
	"context"
	"errors"
	"log/slog"

	"github.com/finalbiome/finalbiome-impex/internal/scanner"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
)

var (
	ErrLoggerRequired       = errors.New("logger is required")
	ErrStateRequired        = errors.New("state is required")
	ErrOrganizationRequired = errors.New("organization is required")
	ErrStateVersionRequired = errors.New("state version is required")
)

type Config struct {
	Logger       *slog.Logger
	State        StateClient
	Organization ledger.AccountID
	StateVersion ledger.Hash
	PageSize     uint32
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return ErrLoggerRequired
	}
	if c.State == nil {
		return ErrStateRequired
	}
	if c.Organization.IsZero() {
		return ErrOrganizationRequired
	}
	if c.StateVersion.IsZero() {
		return ErrStateVersionRequired
	}
	if c.PageSize == 0 {
		c.PageSize = scanner.DefaultPageSize
	}
	return nil
}

// StateClient reads the node's storage at a given state version.
type StateClient interface {
	scanner.KeyPager
	GetStorage(ctx context.Context, key ledger.StorageKey, at ledger.Hash) ([]byte, error)
}

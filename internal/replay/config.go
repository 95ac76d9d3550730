package replay

import (
	"context"
	"errors"
	"log/slog"

	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
)

var (
	ErrLoggerRequired             = errors.New("logger is required")
	ErrSubmitterRequired          = errors.New("submitter is required")
	ErrOrganizationSignerRequired = errors.New("organization signer is required")
)

type Config struct {
	Logger    *slog.Logger
	Submitter Submitter

	// OrganizationSigner creates the organization and adds its members.
	OrganizationSigner ledger.Signer
	// ManagerSigner creates assets, classes, attributes and characteristics.
	// It defaults to OrganizationSigner.
	ManagerSigner ledger.Signer

	// OnTransaction is called after every successful transaction.
	OnTransaction func(Step)
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return ErrLoggerRequired
	}
	if c.Submitter == nil {
		return ErrSubmitterRequired
	}
	if c.OrganizationSigner == nil {
		return ErrOrganizationSignerRequired
	}
	if c.ManagerSigner == nil {
		c.ManagerSigner = c.OrganizationSigner
	}
	return nil
}

// Submitter submits a call and waits until it is included and dispatched.
type Submitter interface {
	Submit(ctx context.Context, call ledger.Call, signer ledger.Signer) (*ledger.Outcome, error)
}

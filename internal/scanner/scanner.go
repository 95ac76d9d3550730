// Package scanner iterates all storage keys under a prefix at a pinned
// state version, fetching them from the node one page at a time.
package scanner

import (
	"context"
	"fmt"

	"github.com/finalbiome/finalbiome-impex/internal/errs"
	"github.com/finalbiome/finalbiome-impex/internal/metrics"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
)

const DefaultPageSize = 10

type KeyPager interface {
	GetKeysPaged(ctx context.Context, prefix []byte, count uint32, startKey ledger.StorageKey, at ledger.Hash) ([]ledger.StorageKey, error)
}

type Option func(*Scanner)

// WithPageSize sets the number of keys requested per page.
func WithPageSize(n uint32) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// Scanner yields the keys under a prefix in store order. It is not safe for
// concurrent use.
type Scanner struct {
	pager    KeyPager
	prefix   ledger.StorageKey
	at       ledger.Hash
	pageSize uint32

	page   []ledger.StorageKey
	cursor ledger.StorageKey
	done   bool
	err    error
}

func New(pager KeyPager, prefix ledger.StorageKey, at ledger.Hash, opts ...Option) *Scanner {
	s := &Scanner{
		pager:    pager,
		prefix:   prefix,
		at:       at,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next key. ok is false once every key was returned or
// after a failure; a failure is returned again by every later call.
func (s *Scanner) Next(ctx context.Context) (ledger.StorageKey, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	if len(s.page) == 0 && !s.done {
		if err := s.fetch(ctx); err != nil {
			s.err = err
			return nil, false, err
		}
	}
	if len(s.page) == 0 {
		return nil, false, nil
	}
	key := s.page[0]
	s.page = s.page[1:]
	return key, true, nil
}

func (s *Scanner) fetch(ctx context.Context) error {
	metrics.PagesFetched.Inc()
	keys, err := s.pager.GetKeysPaged(ctx, s.prefix, s.pageSize, s.cursor, s.at)
	if err != nil {
		metrics.Errors.WithLabelValues(metrics.ErrorTypeFetchPage).Inc()
		return fmt.Errorf("%w: failed to fetch keys under %s: %w", errs.ErrIO, s.prefix, err)
	}
	if len(keys) == 0 {
		s.done = true
		return nil
	}
	metrics.KeysScanned.Add(float64(len(keys)))
	s.page = keys
	s.cursor = keys[len(keys)-1]
	return nil
}

// All drains the scanner.
func (s *Scanner) All(ctx context.Context) ([]ledger.StorageKey, error) {
	var out []ledger.StorageKey
	for {
		key, ok, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, key)
	}
}

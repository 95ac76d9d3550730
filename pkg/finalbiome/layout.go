package finalbiome

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
)

//go:embed runtime.yaml
var runtimeYAML []byte

var (
	defaultLayout     *ledger.RuntimeLayout
	defaultLayoutOnce sync.Once
	defaultLayoutErr  error
)

// DefaultRuntimeLayout returns the embedded runtime layout. It's safe to
// call concurrently.
func DefaultRuntimeLayout() (*ledger.RuntimeLayout, error) {
	defaultLayoutOnce.Do(func() {
		defaultLayout, defaultLayoutErr = ledger.ParseRuntimeLayout(runtimeYAML)
	})
	return defaultLayout, defaultLayoutErr
}

// LoadRuntimeLayout reads a runtime layout from path, or returns the
// embedded one when path is empty.
func LoadRuntimeLayout(path string) (*ledger.RuntimeLayout, error) {
	if path == "" {
		return DefaultRuntimeLayout()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runtime layout: %w", err)
	}
	return ledger.ParseRuntimeLayout(data)
}

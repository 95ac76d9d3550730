package gamespec

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/finalbiome/finalbiome-impex/internal/errs"
)

var ErrFileExists = errors.New("file already exists")

// Save writes the snapshot to path as indented JSON. An existing file is
// only replaced when overwrite is set. The document is written to a
// temporary file next to path and renamed into place.
func Save(path string, snap *Snapshot, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %w: %s", errs.ErrIO, ErrFileExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: failed to stat %s: %w", errs.ErrIO, path, err)
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal game spec: %w", errs.ErrValidation, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary file: %w", errs.ErrIO, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to write temporary file: %w", errs.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to close temporary file: %w", errs.ErrIO, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to set file mode: %w", errs.ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to rename file: %w", errs.ErrIO, err)
	}
	return nil
}

// Load reads a snapshot written by Save.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read game spec: %w", errs.ErrIO, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: failed to parse game spec %s: %w", errs.ErrValidation, path, err)
	}
	if snap.OrganizationDetails == nil {
		return nil, fmt.Errorf("%w: game spec %s has no organization details", errs.ErrValidation, path)
	}
	return &snap, nil
}

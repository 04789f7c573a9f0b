// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package repl

import (
	"encoding/json"
	"fmt"
	"os"
)

// archiveMetadata is the sidecar record pairing a detached archive with
// its base snapshot. A file archive has no side channel to negotiate
// the base live, so it travels alongside.
type archiveMetadata struct {
	PrecursorSnap string `json:"precursor_snap"`
}

// WriteArchiveMetadata persists the precursor snapshot identifier to path.
func WriteArchiveMetadata(path, precursor string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating metadata %s: %v", ErrIO, path, err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(archiveMetadata{PrecursorSnap: precursor}); err != nil {
		return fmt.Errorf("%w: writing metadata %s: %v", ErrIO, path, err)
	}
	return nil
}

// ReadArchiveMetadata reads the precursor snapshot identifier back.
func ReadArchiveMetadata(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", ErrMetadata, path, err)
	}
	defer f.Close()
	var meta archiveMetadata
	if err := json.NewDecoder(f).Decode(&meta); err != nil {
		return "", fmt.Errorf("%w: decoding %s: %v", ErrMetadata, path, err)
	}
	if meta.PrecursorSnap == "" {
		return "", fmt.Errorf("%w: %s has no precursor snapshot", ErrMetadata, path)
	}
	return meta.PrecursorSnap, nil
}

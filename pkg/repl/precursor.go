// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package repl

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ResolvePrecursor finds the latest snapshot common to both replica
// timelines. fromSnaps and toSnaps are same-kind catalogs sorted
// ascending. Both sides are scanned newest first; a destination entry
// matches when it ends with the source identifier, since the
// destination may carry a different pool prefix. The first source
// candidate with any match is the most recent common ancestor, which
// minimizes the incremental range.
func ResolvePrecursor(log *zap.Logger, fromSnaps, toSnaps []string) (string, error) {
	for i := len(fromSnaps) - 1; i >= 0; i-- {
		candidate := fromSnaps[i]
		for j := len(toSnaps) - 1; j >= 0; j-- {
			log.Debug("precursor candidate",
				zap.String("from", candidate),
				zap.String("to", toSnaps[j]))
			if strings.HasSuffix(toSnaps[j], candidate) {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("%w: replica timelines have diverged, reinitialize with a full transfer", ErrNoPrecursor)
}

// SPDX-License-Identifier: Unlicense OR MIT

package brh

import "errors"

var (
	// ErrNoLevels is returned by New when given an empty level list.
	ErrNoLevels = errors.New("brh: at least one level is required")

	// ErrGeometryTooSmall is returned at construction when a node's
	// dimensions cannot hold the edge strips its level options demand
	// (spec §4.8: "models of dimension too small to hold the strips are
	// rejected at construction").
	ErrGeometryTooSmall = errors.New("brh: model dimensions too small for configured edge strips")
)

// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package version carries the agent's semantic version.
package version

import "fmt"

// Components of the agent's semantic version.
const (
	Major = 0
	Minor = 1
	Patch = 0
)

// String returns the version in "major.minor.patch" form.
func String() string {
	return fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
}

// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix && !linux

package action

import (
	"github.com/s-westphal/rrg/action/interfaces"
)

func registerPlatform(registry *Registry) {
	registry.Handle(interfaces.Name, Func(interfaces.Handle))
}

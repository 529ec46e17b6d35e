// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"github.com/s-westphal/rrg/action/listdir"
	"github.com/s-westphal/rrg/action/metadata"
	"github.com/s-westphal/rrg/action/startup"
	"github.com/s-westphal/rrg/action/stat"
	"github.com/s-westphal/rrg/action/timeline"
)

// DefaultRegistry builds the dispatch table with every action this
// build supports. Platform-conditional actions are added by the
// build-tagged registerPlatform; on targets where they are absent the
// controller gets the same dispatch error as for a name that never
// existed.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Handle(startup.Name, Func(startup.Handle))
	registry.Handle(metadata.Name, Func(metadata.Handle))
	registry.Handle(stat.Name, Func(stat.Handle))
	registry.Handle(listdir.Name, Func(listdir.Handle))
	registry.Handle(timeline.Name, Func(timeline.Handle))
	registerPlatform(registry)
	return registry
}

// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package action

import (
	"github.com/s-westphal/rrg/action/filesystems"
	"github.com/s-westphal/rrg/action/insttime"
	"github.com/s-westphal/rrg/action/interfaces"
	"github.com/s-westphal/rrg/action/memsize"
	"github.com/s-westphal/rrg/action/netconns"
)

func registerPlatform(registry *Registry) {
	registry.Handle(interfaces.Name, Func(interfaces.Handle))
	registry.Handle(filesystems.Name, Func(filesystems.Handle))
	registry.Handle(netconns.Name, Func(netconns.Handle))
	registry.Handle(memsize.Name, Func(memsize.Handle))
	registry.Handle(insttime.Name, Func(insttime.Handle))
}

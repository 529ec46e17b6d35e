// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

// Package action maps controller-requested action names onto handlers.
//
// An action is a named unit of work: one request type, one response
// type, one handler function. Each action lives in its own subpackage
// and only has to satisfy the two conversion contracts in package
// session ([session.Request], [session.Response]) plus the handler
// signature
//
//	func Handle(s session.Session, request *Request) error
//
// to be wired into the dispatch table. [Func] lifts such a typed
// handler into the raw [session.Handler] the table stores, taking care
// of payload parsing and parse-failure classification.
//
// The [Registry] is built once at startup and never mutated afterwards.
// [DefaultRegistry] assembles the full table for the current platform;
// actions unsupported on this target are simply absent, and dispatching
// their name is indistinguishable from dispatching a name that never
// existed.
package action

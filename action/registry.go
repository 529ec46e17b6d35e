// Copyright 2026 The RRG Authors
// SPDX-License-Identifier: Apache-2.0

package action

import (
	"errors"
	"fmt"
	"sort"

	"github.com/s-westphal/rrg/session"
)

// Registry is the dispatch table: an exact-string mapping from action
// name to handler. Populate it with Handle during startup, then treat
// it as immutable; the receive loop only reads it.
type Registry struct {
	handlers map[string]session.Handler
}

// NewRegistry creates an empty dispatch table.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]session.Handler)}
}

// Handle registers a handler for the given action name. Panics on a
// duplicate name: two handlers claiming one action is a programmer
// error, not a runtime condition.
func (r *Registry) Handle(name string, handler session.Handler) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("action: duplicate handler for %q", name))
	}
	r.handlers[name] = handler
}

// Dispatch routes the task to the handler registered for its action
// name and drives it to the terminal status. An unregistered name
// rejects the task with a dispatch error — no handler runs, but the
// controller still receives a definitive (failing) terminal status.
func (r *Registry) Dispatch(task *session.Task) error {
	handler, ok := r.handlers[task.Action]
	if !ok {
		return task.Reject(session.DispatchError(task.Action))
	}
	return task.Execute(handler)
}

// Names returns the registered action names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Func lifts a typed action handler into the raw [session.Handler] the
// registry stores. The returned handler parses the raw argument payload
// into a fresh request value via the action's [session.Request]
// implementation; a conversion failure becomes a parse-classified task
// error and the typed handler never runs.
func Func[R any, PR interface {
	*R
	session.Request
}](handle func(s session.Session, request *R) error) session.Handler {
	return func(s session.Session, args []byte) error {
		var request R
		if err := PR(&request).UnmarshalWire(args); err != nil {
			var parseErr *session.ParseError
			if !errors.As(err, &parseErr) {
				parseErr = session.Malformed(err)
			}
			return session.ParseFailure(parseErr)
		}
		return handle(s, &request)
	}
}

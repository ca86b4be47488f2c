/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
// Package hooks implements the compiler's named, ordered plugin callback
// driver, grounded on the teacher's lsp middleware dispatch pattern
// (lsp/middleware.go's method/notify/noParam wrappers): every registered
// callback runs behind the same panic-recovery-plus-logging middleware, so
// one misbehaving plugin can't crash a compiler run or go undiagnosed.
package hooks

import (
	"fmt"
	"runtime/debug"

	"bundlecore.dev/bundlecore/internal/logging"
)

// Tap is one registered callback: Name identifies it in logs and
// diagnostics, Stage orders it relative to other taps on the same hook.
type tap[P any] struct {
	name  string
	stage int
	fn    func(P) error
}

// Hook is an ordered list of named callbacks sharing one parameter type,
// the generic equivalent of the teacher's per-method dispatch slot but
// supporting more than one handler per event (a compiler has many plugins;
// an LSP method has exactly one handler).
type Hook[P any] struct {
	name string
	taps []tap[P]
}

// NewHook constructs an empty hook identified by name (used in log lines).
func NewHook[P any](name string) *Hook[P] {
	return &Hook[P]{name: name}
}

// Tap registers fn under tapName, run in ascending stage order; taps with
// equal stage run in registration order.
func (h *Hook[P]) Tap(tapName string, stage int, fn func(P) error) {
	h.taps = append(h.taps, tap[P]{name: tapName, stage: stage, fn: fn})
	// insertion sort: registration counts are small (a handful of plugins),
	// so this stays cheap and keeps taps ordered without a separate sort
	// pass before every Run.
	for i := len(h.taps) - 1; i > 0 && h.taps[i].stage < h.taps[i-1].stage; i-- {
		h.taps[i], h.taps[i-1] = h.taps[i-1], h.taps[i]
	}
}

// Run invokes every registered tap in order with param, wrapped in the same
// panic-recovery-plus-logging middleware the teacher wraps every LSP
// handler in, and stops at the first error.
func (h *Hook[P]) Run(param P) error {
	for _, t := range h.taps {
		if err := h.runOne(t, param); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hook[P]) runOne(t tap[P], param P) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("hooks: panic in %s/%s: %v\n%s", h.name, t.name, r, debug.Stack())
			err = fmt.Errorf("%s/%s: panic: %v", h.name, t.name, r)
		}
	}()

	logging.Debug("hooks: %s/%s started", h.name, t.name)
	err = t.fn(param)
	if err != nil {
		logging.Debug("hooks: %s/%s error: %v", h.name, t.name, err)
		return fmt.Errorf("%s/%s: %w", h.name, t.name, err)
	}
	logging.Debug("hooks: %s/%s completed", h.name, t.name)
	return nil
}

// RunAll invokes every tap even if one returns an error, collecting and
// returning every error encountered — used by hooks where one broken
// reporter plugin shouldn't silence the rest (the compiler runs
// ProcessAssets this way), as opposed to Run's fail-fast semantics for hooks
// that gate subsequent compiler phases (FinishModules, Seal).
func (h *Hook[P]) RunAll(param P) []error {
	var errs []error
	for _, t := range h.taps {
		if err := h.runOne(t, param); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

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
package exports

import (
	"sync"

	"bundlecore.dev/bundlecore/graph"
)

// RuntimeKey names a runtime scope (a chunk-group runtime name, or "*" for
// the runtime-agnostic default), since usage must be tracked per-runtime:
// spec.md §4.2 requires a module's export can be Used under one runtime and
// Unused under another when split chunks isolate the two.
type RuntimeKey string

const AnyRuntime RuntimeKey = "*"

// ExportInfo tracks one named export of a module: whether it is provided at
// all, its usage per runtime, whether it can be safely renamed (mangled)
// during concatenation, and — for re-exports — the module/name it targets.
type ExportInfo struct {
	Name       string
	Provided   bool
	CanMangle  bool
	UsedName   string
	Target     *ReExportTarget
	Inlinable  *InlineValue

	mu          sync.Mutex
	usage       map[RuntimeKey]UsageState
	initializer string // raw source text of a const-like initializer, if any
}

// ReExportTarget records that this export is `export { x } from './other'`,
// so usage propagation can follow the chain to the real definition.
type ReExportTarget struct {
	Module graph.ModuleID
	Name   string // "" for `export * from`
}

// InlineValue holds a literal value discovered for an export whose
// initializer is a compile-time constant (see IsInlinable), letting
// template codegen substitute the value directly instead of emitting a
// property access.
type InlineValue struct {
	Raw string // source text of the literal, trimmed, as IsInlinable accepted it
}

func newExportInfo(name string) *ExportInfo {
	return &ExportInfo{Name: name, Provided: true, CanMangle: true, usage: make(map[RuntimeKey]UsageState)}
}

// UsageIn returns the proven usage state for a runtime, defaulting to
// Unused until the analyzer has visited it.
func (e *ExportInfo) UsageIn(rt RuntimeKey) UsageState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.usage[rt]; ok {
		return s
	}
	return Unused
}

// Mark joins state into the export's usage for rt, returning whether the
// join changed anything (the worklist algorithm uses this to decide whether
// to re-enqueue dependents).
func (e *ExportInfo) Mark(rt RuntimeKey, state UsageState) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.usage[rt]
	next := prev.Join(state)
	if next == prev {
		return false
	}
	e.usage[rt] = next
	if next == Unknown {
		// Unknown means this export was reached through a dynamic or
		// unresolvable access (e.g. a non-analyzable `export *`), so its name
		// can't be safely renamed. Used, by contrast, means a specific name
		// was proven referenced — that's still a safe rename candidate, and
		// it's the common case inlining (see resolveInlining) needs to apply to.
		e.CanMangle = false
	}
	return true
}

// SetInitializer records the raw source text of this export's initializer
// (e.g. `42` in `export const x = 42`), the candidate value
// resolveInlining checks with IsInlinable once usage analysis reaches a
// fixed point.
func (e *ExportInfo) SetInitializer(raw string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initializer = raw
}

// AllRuntimesUnused reports whether every runtime this export has been
// visited under still shows Unused. One of inlining's eligibility
// conditions (spec.md §4.2: "other_exports_info.usage = Unused on every
// runtime"), and also what codegen checks directly to decide whether a
// statically-declared export's source span can be spliced out entirely.
func (e *ExportInfo) AllRuntimesUnused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.usage {
		if s != Unused {
			return false
		}
	}
	return true
}

// resolveInlining checks e's recorded initializer against IsInlinable and,
// if eligible, records the literal on Inlinable/UsedName so codegen can
// substitute it directly. Only called after Analyzer's worklist reaches a
// fixed point and the owning module's Other() is proven unused on every
// runtime (spec.md §4.2's inlining precondition) — usage isn't final before
// then, so this can't run at seed time.
func (e *ExportInfo) resolveInlining() {
	e.mu.Lock()
	canMangle := e.CanMangle
	isReExport := e.Target != nil
	initializer := e.initializer
	e.mu.Unlock()

	if !canMangle || isReExport || initializer == "" {
		return
	}
	val, ok := IsInlinable(initializer)
	if !ok {
		return
	}

	e.mu.Lock()
	e.Inlinable = val
	e.UsedName = val.Raw
	e.mu.Unlock()
}

// ExportsInfo is the per-module collection of ExportInfo, plus a catch-all
// for "other exports" (export names not statically enumerable, e.g. behind
// `export * from` of an unresolvable module).
type ExportsInfo struct {
	Module  graph.ModuleID
	mu      sync.RWMutex
	named   map[string]*ExportInfo
	order   []string // declaration order of named, since Go map iteration isn't
	other   *ExportInfo // usage state for any name not in named
	sideEffectsOnly *ExportInfo // tracks whether the module must still be evaluated
	sideEffectFree  bool
}

func NewExportsInfo(module graph.ModuleID) *ExportsInfo {
	return &ExportsInfo{
		Module:          module,
		named:           make(map[string]*ExportInfo),
		other:           newExportInfo("*"),
		sideEffectsOnly: newExportInfo("<side-effects>"),
	}
}

// Declare registers a named export, returning its ExportInfo (idempotent).
// The first call for a given name fixes its position in Named()'s output;
// later calls are no-ops beyond returning the existing ExportInfo.
func (ei *ExportsInfo) Declare(name string) *ExportInfo {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	if e, ok := ei.named[name]; ok {
		return e
	}
	e := newExportInfo(name)
	ei.named[name] = e
	ei.order = append(ei.order, name)
	return e
}

// Get returns the ExportInfo for name, falling back to the "other" catch-all
// when name was never statically declared.
func (ei *ExportsInfo) Get(name string) *ExportInfo {
	ei.mu.RLock()
	e, ok := ei.named[name]
	ei.mu.RUnlock()
	if ok {
		return e
	}
	return ei.other
}

// Named returns every declared export in declaration order, for iteration by
// the chunk/template phases deciding what to keep in the bundle — order
// matters here since it drives deterministic codegen of the module's export
// list.
func (ei *ExportsInfo) Named() []*ExportInfo {
	ei.mu.RLock()
	defer ei.mu.RUnlock()
	out := make([]*ExportInfo, 0, len(ei.order))
	for _, name := range ei.order {
		out = append(out, ei.named[name])
	}
	return out
}

func (ei *ExportsInfo) Other() *ExportInfo { return ei.other }

// SideEffectsOnly tracks, per runtime, whether the module must still be
// evaluated even though none of its individual exports have been proven
// used — spec.md §4.2's "side_effects_only_info" slot, distinct from
// Other() (which tracks usage of un-enumerable export names).
func (ei *ExportsInfo) SideEffectsOnly() *ExportInfo { return ei.sideEffectsOnly }

func (ei *ExportsInfo) SetSideEffectFree(v bool) {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	ei.sideEffectFree = v
}

func (ei *ExportsInfo) SideEffectFree() bool {
	ei.mu.RLock()
	defer ei.mu.RUnlock()
	return ei.sideEffectFree
}

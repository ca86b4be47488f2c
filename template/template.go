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
package template

import "bundlecore.dev/bundlecore/graph"

// Context carries the per-render information a Template needs beyond the
// dependency itself: which chunk/runtime it's rendering for and how to ask
// for a module's final identifier in that chunk (so a Template can emit a
// reference to another module without knowing chunk assignment itself).
type Context struct {
	Runtime      string
	ModuleIDFor  func(graph.ModuleID) string
	RequireIdent string // the runtime's module-require identifier, e.g. "__require"

	// InlinedValue, when set, asks whether a named ESM specifier resolves to
	// a compile-time constant (exports.Analyzer's inlining pass). ESMTemplate
	// substitutes the returned source text directly instead of emitting a
	// runtime require/destructure, so tree-shaking has an effect a reader
	// can see in the emitted output. nil means no inlining information is
	// available (e.g. a test building a Template without a full Compiler).
	InlinedValue func(esm *graph.ESMDependency, specName string) (string, bool)
}

// Template renders one Dependency's contribution into a ReplaceSource, and
// may contribute InitFragments that get hoisted and deduplicated across the
// whole chunk.
type Template interface {
	Render(dep graph.Dependency, source *ReplaceSource, ctx *Context) []InitFragment
}

// Registry maps a Dependency's concrete Go type to the Template that knows
// how to render it, the small open/closed seam that lets new dependency
// kinds (a future GraphQL loader, say) add a Template without touching the
// ones already registered.
type Registry struct {
	byType map[string]Template
}

func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]Template)}
}

func (r *Registry) Register(kind string, t Template) { r.byType[kind] = t }

func (r *Registry) For(kind string) (Template, bool) {
	t, ok := r.byType[kind]
	return t, ok
}

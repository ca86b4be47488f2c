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

import (
	"fmt"
	"strings"

	"bundlecore.dev/bundlecore/graph"
)

// ConcatenationScope renders several NormalModules into one source: each
// module's transformed code is wrapped in its own immediately-invoked arrow
// function assigned to a collision-free identifier derived from the module's
// resource name. Top-level bindings inside a module are not renamed or
// hoisted, and references between modules are not rewritten. This is the
// multi-module analog of what a single Template.Render does for one
// dependency.
type ConcatenationScope struct {
	g          *graph.Graph
	modules    []*graph.NormalModule
	identFor   map[graph.ModuleID]string
	usedIdents map[string]bool
}

// NewConcatenationScope builds a scope over modules in root-first order (the
// same order graph.ConcatenatedModule.Modules records), assigning each
// module one collision-free identifier.
func NewConcatenationScope(g *graph.Graph, modules []*graph.NormalModule) *ConcatenationScope {
	cs := &ConcatenationScope{
		g:          g,
		modules:    modules,
		identFor:   make(map[graph.ModuleID]string, len(modules)),
		usedIdents: make(map[string]bool, len(modules)),
	}
	for _, m := range modules {
		cs.identFor[m.ID()] = cs.reserveIdent(baseIdentFor(m.Resource))
	}
	return cs
}

// reserveIdent returns base, or base suffixed with an incrementing counter
// if base already belongs to an earlier module in this scope, mirroring how
// scope-hoisting bundlers dedupe colliding top-level names.
func (cs *ConcatenationScope) reserveIdent(base string) string {
	if !cs.usedIdents[base] {
		cs.usedIdents[base] = true
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s$%d", base, i)
		if !cs.usedIdents[candidate] {
			cs.usedIdents[candidate] = true
			return candidate
		}
	}
}

// IdentFor returns the collision-free namespace identifier a concatenated
// module's exports are hung off of within this scope.
func (cs *ConcatenationScope) IdentFor(id graph.ModuleID) (string, bool) {
	ident, ok := cs.identFor[id]
	return ident, ok
}

// Render concatenates every module's transformed source, wrapped so each
// module's top level lives under its reserved identifier, in root-first
// order. Actual per-module transform is the caller's responsibility (it
// must already have run each module's source through TransformModule); this
// only performs the scope-hoisting wrap and join.
func (cs *ConcatenationScope) Render(transformed map[graph.ModuleID]string) string {
	var b strings.Builder
	for _, m := range cs.modules {
		ident := cs.identFor[m.ID()]
		code, ok := transformed[m.ID()]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("// %s\nconst %s = (() => {\n", m.Resource, ident))
		b.WriteString(indent(code))
		b.WriteString("\n})();\n")
	}
	return b.String()
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}

// baseIdentFor derives a JS-identifier-safe base name from a module
// resource path, e.g. "src/utils/format.ts" -> "format".
func baseIdentFor(resource string) string {
	base := resource
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	var b strings.Builder
	for i, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "mod"
	}
	return b.String()
}

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
	"bundlecore.dev/bundlecore/graph"
)

// Analyzer runs the worklist fixed-point usage propagation described in
// spec.md §4.2, grounded on the teacher's ModuleGraph.GetTransitiveElements
// BFS-with-visited-set pattern (lsp/types/module_graph.go), generalized
// from "transitively reachable custom-element tag names" to "per-runtime
// export usage lattice join propagated along import edges".
type Analyzer struct {
	Graph *graph.Graph

	infos map[graph.ModuleID]*ExportsInfo

	// connByDep indexes connections by DependencyID, built once per Run
	// rather than linearly scanned per dependency, since a graph walk by
	// outgoing connections for every dependency would be quadratic on
	// large graphs.
	connByDep map[graph.DependencyID]*graph.Connection
}

// NewAnalyzer constructs an Analyzer over g. InfoFor lazily creates
// ExportsInfo as modules are first visited.
func NewAnalyzer(g *graph.Graph) *Analyzer {
	return &Analyzer{Graph: g, infos: make(map[graph.ModuleID]*ExportsInfo)}
}

// InfoFor returns (creating if needed) the ExportsInfo for a module.
func (a *Analyzer) InfoFor(id graph.ModuleID) *ExportsInfo {
	if info, ok := a.infos[id]; ok {
		return info
	}
	info := NewExportsInfo(id)
	a.infos[id] = info
	return info
}

// workItem is one (module, runtime) pair pending re-evaluation, the
// granularity spec.md §4.2 requires since usage can differ across runtimes
// produced by split chunks.
type workItem struct {
	module  graph.ModuleID
	runtime RuntimeKey
}

// esmSpecifierProvider is implemented by graph.ESMDependency; declared here
// so exports stays decoupled from graph's concrete specifier shape.
type esmSpecifierProvider interface {
	SpecifierNames() []string
}

// maxReExportChainDepth bounds how far markUsedAndFollow will chase
// ExportInfo.Target links, defending against a reexport cycle
// (a reexports from b, b reexports from a) without needing a full
// per-call visited set.
const maxReExportChainDepth = 32

// Run propagates usage from every entry's dependencies down through
// imports to a fixed point: no workItem produces a change on its next visit.
func (a *Analyzer) Run() {
	a.indexConnections()
	a.seedExportsInfo()

	var queue []workItem
	seen := make(map[workItem]bool)

	enqueue := func(w workItem) {
		if !seen[w] {
			seen[w] = true
			queue = append(queue, w)
		}
	}

	for name, entry := range a.Graph.Entries() {
		rt := RuntimeKey(entry.Runtime)
		if rt == "" {
			rt = RuntimeKey(name)
		}
		for _, depID := range entry.Dependencies {
			a.applyDependency(depID, rt, enqueue)
		}
	}

	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]
		delete(seen, w)

		module, ok := a.Graph.Module(w.module)
		if !ok {
			continue
		}
		for _, depID := range module.Dependencies() {
			a.applyDependency(depID, w.runtime, enqueue)
		}
	}

	a.resolveInlining()
}

// seedExportsInfo pre-declares every NormalModule's statically-parsed
// exports (Provided exports that nothing has imported yet still need to
// show up in ExportsInfo.Named() so codegen can see and elide them) and
// wires ReExportTarget for re-exports, plus each module's side-effects
// flag from graph.BuildMeta.
func (a *Analyzer) seedExportsInfo() {
	for _, id := range a.Graph.AllModuleIDs() {
		mod, ok := a.Graph.Module(id)
		if !ok {
			continue
		}
		info := a.InfoFor(id)
		info.SetSideEffectFree(mod.BuildMeta().SideEffectFree)

		nm, ok := mod.(*graph.NormalModule)
		if !ok {
			continue
		}
		for _, exp := range nm.Exports {
			e := info.Declare(exp.Alias)
			if exp.Initializer != "" {
				e.SetInitializer(exp.Initializer)
			}
			if exp.ReExportSource == "" {
				continue
			}
			if conn, ok := a.connByDep[exp.ReExportDependencyID]; ok {
				e.Target = &ReExportTarget{Module: conn.ModuleID, Name: exp.Name}
			}
		}
	}
}

// resolveInlining runs once the worklist has reached a fixed point: for
// every module whose Other() (un-enumerable export usage) is proven unused
// on every runtime, each of its named exports gets a chance to resolve to
// an inline literal. Must run after the loop in Run(), never during it,
// since a dependency visited early in the worklist can still gain Used
// state from one visited later.
func (a *Analyzer) resolveInlining() {
	for _, info := range a.infos {
		if !info.Other().AllRuntimesUnused() {
			continue
		}
		for _, e := range info.Named() {
			e.resolveInlining()
		}
	}
}

func (a *Analyzer) indexConnections() {
	a.connByDep = make(map[graph.DependencyID]*graph.Connection)
	for _, id := range a.Graph.AllModuleIDs() {
		for _, connID := range a.Graph.OutgoingConnections(id) {
			if conn, ok := a.Graph.Connection(connID); ok {
				a.connByDep[conn.DependencyID] = conn
			}
		}
	}
	// Entry dependencies have no origin module, so their connections never
	// show up as an OutgoingConnections(id) of any module; index them via
	// the target modules' incoming sets instead.
	for _, id := range a.Graph.AllModuleIDs() {
		for _, connID := range a.Graph.IncomingConnections(id) {
			if conn, ok := a.Graph.Connection(connID); ok {
				if _, exists := a.connByDep[conn.DependencyID]; !exists {
					a.connByDep[conn.DependencyID] = conn
				}
			}
		}
	}
}

// applyDependency resolves depID's connection (if any) to find the target
// module, marks the imported names Used on that module's ExportsInfo, and
// enqueues the target module for the same runtime so its own imports get
// walked next.
func (a *Analyzer) applyDependency(depID graph.DependencyID, rt RuntimeKey, enqueue func(workItem)) {
	dep, ok := a.Graph.Dependency(depID)
	if !ok {
		return
	}
	conn, ok := a.connByDep[depID]
	if !ok {
		return
	}
	targetID := conn.ModuleID

	info := a.InfoFor(targetID)
	var changed bool

	if esm, ok := dep.(esmSpecifierProvider); ok {
		changed = a.markSpecifiers(info, esm.SpecifierNames(), rt, enqueue)
	} else if info.SideEffectFree() {
		// Side-effects-only usage (spec.md §4.2): reaching a side-effect-free
		// module only through a non-analyzable dependency (CommonJS, URL,
		// Worker, Context) proves nothing about which exports are used —
		// it only proves the module must still be evaluated.
		if info.SideEffectsOnly().Mark(rt, Used) {
			changed = true
		}
	} else {
		// A dependency-carrying module with side effects is treated
		// conservatively as using every export, matching spec.md's
		// "Unknown/Used" fallback for dynamic or non-analyzable requests.
		if info.Other().Mark(rt, Used) {
			changed = true
		}
		for _, e := range info.Named() {
			if a.markUsedAndFollow(e, rt, enqueue, 0) {
				changed = true
			}
		}
	}

	if changed {
		enqueue(workItem{module: targetID, runtime: rt})
	}
}

func (a *Analyzer) markSpecifiers(info *ExportsInfo, names []string, rt RuntimeKey, enqueue func(workItem)) bool {
	changed := false
	for _, name := range names {
		if name == "*" {
			if info.Other().Mark(rt, Used) {
				changed = true
			}
			for _, e := range info.Named() {
				if a.markUsedAndFollow(e, rt, enqueue, 0) {
					changed = true
				}
			}
			continue
		}
		e := info.Declare(name)
		if a.markUsedAndFollow(e, rt, enqueue, 0) {
			changed = true
		}
	}
	return changed
}

// markUsedAndFollow marks e Used for rt and, when e is a re-export
// (e.Target set), follows the chain to the originating module's real export
// so usage propagates through barrel files instead of stopping at the
// re-exporting module's own ExportInfo (spec.md's reexport-chain
// resolution).
func (a *Analyzer) markUsedAndFollow(e *ExportInfo, rt RuntimeKey, enqueue func(workItem), depth int) bool {
	changed := e.Mark(rt, Used)
	if e.Target == nil || depth >= maxReExportChainDepth {
		return changed
	}

	targetInfo := a.InfoFor(e.Target.Module)
	if e.Target.Name == "" {
		// `export * from './other'`: usage of the whole re-export is
		// usage of every name './other' provides.
		if targetInfo.Other().Mark(rt, Used) {
			changed = true
		}
		for _, te := range targetInfo.Named() {
			if a.markUsedAndFollow(te, rt, enqueue, depth+1) {
				changed = true
			}
		}
	} else {
		te := targetInfo.Declare(e.Target.Name)
		if a.markUsedAndFollow(te, rt, enqueue, depth+1) {
			changed = true
		}
	}
	enqueue(workItem{module: e.Target.Module, runtime: rt})
	return changed
}

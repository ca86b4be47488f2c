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
package chunk

import (
	"encoding/hex"
	"sort"
	"strconv"

	"bundlecore.dev/bundlecore/graph"
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/crypto/blake2b"
)

// CacheGroup is one split-chunks rule: modules whose resource path matches
// Test (a doublestar glob, e.g. "**/node_modules/**") are split into their
// own chunk named Name, evaluated in Priority order (higher first), the
// same priority-ordered cache-group evaluation spec.md §4.3 Phase C
// describes.
type CacheGroup struct {
	Name      string
	Test      string
	Priority  int
	MinChunks int // minimum number of chunks that must share a module before it's split
}

// Builder runs the five ordered phases of spec.md §4.3 over a *graph.Graph,
// producing a chunk.Graph.
type Builder struct {
	Graph       *graph.Graph
	CacheGroups []CacheGroup

	result *Graph
	// sharing counts how many initial seed chunks reference each module,
	// needed by SplitChunks' MinChunks check.
	sharing map[graph.ModuleID]int
	// visitedBlocks dedups AsyncBlocks across the whole Phase B DFS (not
	// just per top-level chunk), so a block reachable through two
	// different nesting paths still materializes exactly once.
	visitedBlocks map[*graph.AsyncBlock]bool
}

func NewBuilder(g *graph.Graph, cacheGroups ...CacheGroup) *Builder {
	return &Builder{Graph: g, CacheGroups: cacheGroups}
}

// Build runs Phase A through Phase E in order and returns the resulting
// chunk.Graph.
func (b *Builder) Build() *Graph {
	b.result = NewGraph()
	b.sharing = make(map[graph.ModuleID]int)

	b.seed()
	b.assignBlocks()
	b.splitChunks()
	b.assignIDs()
	b.hashModules()

	b.result.reindex()
	return b.result
}

// seed is Phase A: one initial ChunkGroup+Chunk per entry, seeded with the
// entry's directly reachable modules (a depth-first walk over dependencies
// excluding async-block boundaries, which Phase B splits off separately).
func (b *Builder) seed() {
	for name, entry := range b.Graph.Entries() {
		chunk := newChunk(name)
		group := &ChunkGroup{Name: name, IsEntry: true}
		group.AddChunk(chunk)
		b.result.addChunk(chunk)
		b.result.addGroup(group)

		visited := make(map[graph.ModuleID]bool)
		var walk func(depID graph.DependencyID)
		walk = func(depID graph.DependencyID) {
			modID := b.resolvedModule(depID)
			if modID == "" || visited[modID] {
				return
			}
			visited[modID] = true
			chunk.AddModule(modID)
			b.sharing[modID]++

			mod, ok := b.Graph.Module(modID)
			if !ok {
				return
			}
			inBlock := make(map[graph.DependencyID]bool)
			for _, blk := range mod.Blocks() {
				for _, d := range blk.Dependencies {
					inBlock[d] = true
				}
			}
			for _, d := range mod.Dependencies() {
				if !inBlock[d] {
					walk(d)
				}
			}
		}
		for _, depID := range entry.Dependencies {
			walk(depID)
		}
		chunk.Runtime = chunk.Runtime.Add(entry.Runtime)
	}
}

// resolvedModule finds the module a dependency id resolved to by scanning
// connections; acceptable for the graph sizes this builder targets since
// chunk building runs once per build, not per-task.
func (b *Builder) resolvedModule(depID graph.DependencyID) graph.ModuleID {
	for _, id := range b.Graph.AllModuleIDs() {
		for _, connID := range b.Graph.IncomingConnections(id) {
			if conn, ok := b.Graph.Connection(connID); ok && conn.DependencyID == depID {
				return conn.ModuleID
			}
		}
	}
	return ""
}

// assignBlocks is Phase B: a DFS over each seed chunk's modules' AsyncBlocks
// discovers on-demand chunk group boundaries, using a visited set so a
// dynamic import reached two different ways only produces one on-demand
// chunk group, per spec.md §9's "DFS with a visited set" requirement.
func (b *Builder) assignBlocks() {
	b.visitedBlocks = make(map[*graph.AsyncBlock]bool)

	// Operate over a snapshot since seed's chunks are the only ones with
	// modules at this point; splitChunks runs after this phase.
	for _, c := range append([]*Chunk{}, b.result.Chunks...) {
		for _, modID := range c.Modules() {
			mod, ok := b.Graph.Module(modID)
			if !ok {
				continue
			}
			for _, block := range mod.Blocks() {
				if b.visitedBlocks[block] {
					continue
				}
				b.visitedBlocks[block] = true
				b.materializeBlock(block, c)
			}
		}
	}
}

func (b *Builder) materializeBlock(block *graph.AsyncBlock, parentChunk *Chunk) {
	name := block.ChunkName
	if name == "" {
		name = "chunk"
	}
	onDemand := newChunk(name)
	group := &ChunkGroup{Name: name}
	for _, pg := range parentChunk.groups {
		group.Parents = append(group.Parents, pg)
	}
	group.AddChunk(onDemand)
	b.result.addChunk(onDemand)
	b.result.addGroup(group)

	visited := make(map[graph.ModuleID]bool)
	var walk func(depID graph.DependencyID)
	walk = func(depID graph.DependencyID) {
		modID := b.resolvedModule(depID)
		if modID == "" || visited[modID] {
			return
		}
		visited[modID] = true
		onDemand.AddModule(modID)
		b.sharing[modID]++

		mod, ok := b.Graph.Module(modID)
		if !ok {
			return
		}
		for _, d := range mod.Dependencies() {
			walk(d)
		}
		for _, nested := range mod.Blocks() {
			if b.visitedBlocks[nested] {
				continue
			}
			b.visitedBlocks[nested] = true
			b.materializeBlock(nested, onDemand)
		}
	}
	for _, depID := range block.Dependencies {
		walk(depID)
	}
}

// splitChunks is Phase C: evaluate cache groups in priority order, pulling
// matching modules that meet MinChunks sharing into their own chunk. The
// split-out chunk gets its own ChunkGroup, parented on every ChunkGroup that
// contributed a module to it, so it renders as a child of every entrypoint
// (or on-demand group) that originally pulled it in rather than as an
// orphan.
func (b *Builder) splitChunks() {
	groups := append([]CacheGroup{}, b.CacheGroups...)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Priority > groups[j].Priority })

	for _, cg := range groups {
		var split *Chunk
		var splitGroup *ChunkGroup
		contributors := make(map[*ChunkGroup]bool)

		for _, c := range b.result.Chunks {
			contributed := false
			for _, modID := range append([]graph.ModuleID{}, c.Modules()...) {
				mod, ok := b.Graph.Module(modID)
				if !ok {
					continue
				}
				resource := moduleResource(mod)
				if resource == "" {
					continue
				}
				matched, _ := doublestar.Match(cg.Test, resource)
				if !matched {
					continue
				}
				minChunks := cg.MinChunks
				if minChunks <= 0 {
					// A module referenced by only one chunk has nothing to
					// share; require at least two before splitting it out.
					minChunks = 2
				}
				if b.sharing[modID] < minChunks {
					continue
				}
				if split == nil {
					split = newChunk(cg.Name)
					splitGroup = &ChunkGroup{Name: cg.Name}
					splitGroup.AddChunk(split)
					b.result.addChunk(split)
					b.result.addGroup(splitGroup)
				}
				c.RemoveModule(modID)
				split.AddModule(modID)
				contributed = true
			}
			if contributed {
				for _, pg := range c.groups {
					contributors[pg] = true
				}
			}
		}

		if splitGroup != nil {
			for pg := range contributors {
				splitGroup.Parents = append(splitGroup.Parents, pg)
			}
			sort.Slice(splitGroup.Parents, func(i, j int) bool {
				return splitGroup.Parents[i].Name < splitGroup.Parents[j].Name
			})
		}
	}

	// Drop chunks left empty by splitting.
	kept := b.result.Chunks[:0]
	for _, c := range b.result.Chunks {
		if c.ModuleCount() > 0 {
			kept = append(kept, c)
		}
	}
	b.result.Chunks = kept
}

func moduleResource(m graph.Module) string {
	if nm, ok := m.(*graph.NormalModule); ok {
		return nm.Resource
	}
	return ""
}

// assignIDs is Phase D: deterministic ids by name, falling back to a
// numeric suffix tie-break keyed on (name, sorted-module-id-set length) for
// chunks that would otherwise collide (two on-demand chunks both named
// "chunk", say).
func (b *Builder) assignIDs() {
	used := make(map[ChunkID]bool)
	sort.SliceStable(b.result.Chunks, func(i, j int) bool {
		ci, cj := b.result.Chunks[i], b.result.Chunks[j]
		if ci.Name != cj.Name {
			return ci.Name < cj.Name
		}
		return ci.ModuleCount() < cj.ModuleCount()
	})

	for _, c := range b.result.Chunks {
		base := ChunkID(c.Name)
		if base == "" {
			base = "chunk"
		}
		id := base
		suffix := 2
		for used[id] {
			id = ChunkID(string(base) + "-" + strconv.Itoa(suffix))
			suffix++
		}
		used[id] = true
		c.ID = id
	}
}

// hashModules is Phase E: every chunk gets one content hash over its sorted
// module identifiers followed by its runtime names, so the same module set
// under two different runtimes hashes differently (runtime globals can
// differ even when the module list doesn't). The hash is a single string
// per chunk; no per-module or per-runtime hash map is built.
func (b *Builder) hashModules() {
	for _, c := range b.result.Chunks {
		h, err := blake2b.New256(nil)
		if err != nil {
			continue
		}
		for _, modID := range c.Modules() { // already sorted by orderedset.Members
			h.Write([]byte(modID))
			h.Write([]byte{0})
		}
		for _, r := range c.Runtime.Names() {
			h.Write([]byte(r))
		}
		c.hash = hex.EncodeToString(h.Sum(nil))[:16]
	}
}

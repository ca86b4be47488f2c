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
	"sort"

	"bundlecore.dev/bundlecore/graph"
	"bundlecore.dev/bundlecore/internal/orderedset"
)

// ChunkID identifies a chunk once Phase D (AssignIDs) has run; before that
// a chunk is only addressable by its *Chunk pointer.
type ChunkID string

// Chunk is one output file unit: an initial chunk (seeded from an entry) or
// an on-demand chunk (seeded from an AsyncBlock), holding the set of
// modules assigned to it and the runtimes it serves.
type Chunk struct {
	ID       ChunkID
	Name     string // optional, from entry name or webpackChunkName
	Runtime  RuntimeSpec
	modules  orderedset.Set[graph.ModuleID]
	groups   []*ChunkGroup
	hash     string
}

func newChunk(name string) *Chunk {
	return &Chunk{Name: name, modules: orderedset.New[graph.ModuleID]()}
}

func (c *Chunk) AddModule(id graph.ModuleID)      { c.modules.Add(id) }
func (c *Chunk) RemoveModule(id graph.ModuleID)   { c.modules.Remove(id) }
func (c *Chunk) HasModule(id graph.ModuleID) bool { return c.modules.Has(id) }
func (c *Chunk) Modules() []graph.ModuleID        { return c.modules.Members() }
func (c *Chunk) ModuleCount() int                 { return len(c.modules) }
func (c *Chunk) Hash() string                     { return c.hash }

// ChunkGroup orders an initial or on-demand chunk group's member chunks,
// the unit an entry point or an AsyncBlock resolves into (a group can span
// more than one chunk once split-chunks peels shared code into its own).
type ChunkGroup struct {
	Name    string
	Chunks  []*Chunk
	Parents []*ChunkGroup
	IsEntry bool
}

func (cg *ChunkGroup) AddChunk(c *Chunk) {
	cg.Chunks = append(cg.Chunks, c)
	c.groups = append(c.groups, cg)
}

// Graph (the "chunk graph", named Graph to match spec.md's own vocabulary;
// callers outside the package should refer to it as chunk.Graph) owns every
// chunk and chunk group produced by Builder, plus the module<->chunk
// membership index needed to answer "which chunks is this module in".
type Graph struct {
	Chunks       []*Chunk
	Groups       []*ChunkGroup
	moduleChunks map[graph.ModuleID][]*Chunk
}

func NewGraph() *Graph {
	return &Graph{moduleChunks: make(map[graph.ModuleID][]*Chunk)}
}

func (g *Graph) addChunk(c *Chunk) {
	g.Chunks = append(g.Chunks, c)
}

func (g *Graph) addGroup(cg *ChunkGroup) {
	g.Groups = append(g.Groups, cg)
}

// reindex rebuilds the module->chunks index; called after phases that
// mutate chunk membership (SplitChunks moves modules between chunks).
func (g *Graph) reindex() {
	g.moduleChunks = make(map[graph.ModuleID][]*Chunk)
	for _, c := range g.Chunks {
		for _, m := range c.Modules() {
			g.moduleChunks[m] = append(g.moduleChunks[m], c)
		}
	}
}

// ChunksForModule returns every chunk containing a module, sorted by chunk
// name for determinism.
func (g *Graph) ChunksForModule(id graph.ModuleID) []*Chunk {
	chunks := append([]*Chunk{}, g.moduleChunks[id]...)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Name < chunks[j].Name })
	return chunks
}

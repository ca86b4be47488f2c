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
	"testing"

	"bundlecore.dev/bundlecore/graph"
	"github.com/stretchr/testify/require"
)

// linearGraph builds main -> a -> b, all NormalModules, one entry "main".
func linearGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph()

	bID := graph.NewModuleID("normal", "b.ts", "", "", "")
	bMod := graph.NewNormalModule(bID, "b.ts")
	g.AddModule(bMod)

	aID := graph.NewModuleID("normal", "a.ts", "", "", "")
	aMod := graph.NewNormalModule(aID, "a.ts")
	depToB := graph.NewESMDependency("./b")
	depToBID := g.AddDependency(depToB)
	aMod.SetDependencies(depToBID)
	g.AddModule(aMod)
	_, diag := g.AddConnection(depToBID, aID, bID)
	require.Nil(t, diag)

	entry := g.AddEntry("main", "main")
	depToA := graph.NewESMDependency("./a")
	depToAID := g.AddDependency(depToA)
	entry.Dependencies = append(entry.Dependencies, depToAID)
	_, diag = g.AddConnection(depToAID, "", aID)
	require.Nil(t, diag)

	return g
}

func TestBuilderSeedsOneChunkPerEntry(t *testing.T) {
	g := linearGraph(t)
	cg := NewBuilder(g)
	result := cg.Build()

	require.Len(t, result.Chunks, 1)
	c := result.Chunks[0]
	require.Equal(t, 2, c.ModuleCount(), "both a.ts and b.ts are reachable from main")
}

func TestBuilderAssignsStableIDs(t *testing.T) {
	g := linearGraph(t)
	cg := NewBuilder(g)
	result := cg.Build()

	require.Equal(t, ChunkID("main"), result.Chunks[0].ID)
}

func TestBuilderHashesAreDeterministic(t *testing.T) {
	g := linearGraph(t)
	h1 := NewBuilder(g).Build().Chunks[0].Hash()

	g2 := linearGraph(t)
	h2 := NewBuilder(g2).Build().Chunks[0].Hash()

	require.Equal(t, h1, h2, "hashing the same module set must be stable across builds")
	require.NotEmpty(t, h1)
}

func TestSplitChunksExtractsMatchingModules(t *testing.T) {
	g := graph.NewGraph()

	vendorID := graph.NewModuleID("normal", "node_modules/react/index.js", "", "", "")
	vendor := graph.NewNormalModule(vendorID, "node_modules/react/index.js")
	g.AddModule(vendor)

	entry := g.AddEntry("main", "main")
	dep := graph.NewESMDependency("react")
	depID := g.AddDependency(dep)
	entry.Dependencies = append(entry.Dependencies, depID)
	_, diag := g.AddConnection(depID, "", vendorID)
	require.Nil(t, diag)

	b := NewBuilder(g, CacheGroup{Name: "vendor", Test: "**/node_modules/**", Priority: 10, MinChunks: 1})
	result := b.Build()

	require.Len(t, result.Chunks, 1, "vendor module split out of the now-empty main chunk")
	require.Equal(t, "vendor", result.Chunks[0].Name)
	require.True(t, result.Chunks[0].HasModule(vendorID))
}

func TestSplitChunksParentsSplitGroupOnOriginatingEntrypoints(t *testing.T) {
	g := graph.NewGraph()

	utilID := graph.NewModuleID("normal", "util.js", "", "", "")
	util := graph.NewNormalModule(utilID, "util.js")
	g.AddModule(util)

	aID := graph.NewModuleID("normal", "a.js", "", "", "")
	a := graph.NewNormalModule(aID, "a.js")
	depToUtilA := graph.NewESMDependency("./util")
	depToUtilAID := g.AddDependency(depToUtilA)
	a.SetDependencies(depToUtilAID)
	g.AddModule(a)
	_, diag := g.AddConnection(depToUtilAID, aID, utilID)
	require.Nil(t, diag)

	bID := graph.NewModuleID("normal", "b.js", "", "", "")
	b := graph.NewNormalModule(bID, "b.js")
	depToUtilB := graph.NewESMDependency("./util")
	depToUtilBID := g.AddDependency(depToUtilB)
	b.SetDependencies(depToUtilBID)
	g.AddModule(b)
	_, diag = g.AddConnection(depToUtilBID, bID, utilID)
	require.Nil(t, diag)

	entryA := g.AddEntry("a", "a")
	depA := graph.NewESMDependency("./a")
	depAID := g.AddDependency(depA)
	entryA.Dependencies = append(entryA.Dependencies, depAID)
	_, diag = g.AddConnection(depAID, "", aID)
	require.Nil(t, diag)

	entryB := g.AddEntry("b", "b")
	depB := graph.NewESMDependency("./b")
	depBID := g.AddDependency(depB)
	entryB.Dependencies = append(entryB.Dependencies, depBID)
	_, diag = g.AddConnection(depBID, "", bID)
	require.Nil(t, diag)

	builder := NewBuilder(g, CacheGroup{Name: "shared", Test: "util.js", Priority: 10, MinChunks: 2})
	result := builder.Build()

	var sharedGroup *ChunkGroup
	for _, group := range result.Groups {
		if group.Name == "shared" {
			sharedGroup = group
		}
	}
	require.NotNil(t, sharedGroup, "split-chunks must produce a ChunkGroup for the extracted chunk")
	require.Len(t, sharedGroup.Parents, 2, "the shared chunk is a child of both entrypoints that referenced it")

	parentNames := []string{sharedGroup.Parents[0].Name, sharedGroup.Parents[1].Name}
	require.Contains(t, parentNames, "a")
	require.Contains(t, parentNames, "b")
}

func TestSplitChunksDefaultMinChunksRequiresSharing(t *testing.T) {
	g := graph.NewGraph()

	vendorID := graph.NewModuleID("normal", "node_modules/react/index.js", "", "", "")
	vendor := graph.NewNormalModule(vendorID, "node_modules/react/index.js")
	g.AddModule(vendor)

	entry := g.AddEntry("main", "main")
	dep := graph.NewESMDependency("react")
	depID := g.AddDependency(dep)
	entry.Dependencies = append(entry.Dependencies, depID)
	_, diag := g.AddConnection(depID, "", vendorID)
	require.Nil(t, diag)

	b := NewBuilder(g, CacheGroup{Name: "vendor", Test: "**/node_modules/**", Priority: 10})
	result := b.Build()

	require.Len(t, result.Chunks, 1, "a module referenced by only one chunk is not split out by default")
	require.Equal(t, "main", result.Chunks[0].Name)
}

func TestBuilderAsyncBlockProducesSeparateChunk(t *testing.T) {
	g := graph.NewGraph()

	lazyID := graph.NewModuleID("normal", "lazy.ts", "", "", "")
	lazy := graph.NewNormalModule(lazyID, "lazy.ts")
	g.AddModule(lazy)

	mainID := graph.NewModuleID("normal", "main.ts", "", "", "")
	main := graph.NewNormalModule(mainID, "main.ts")
	dep := graph.NewESMDependency("./lazy")
	depID := g.AddDependency(dep)
	block := &graph.AsyncBlock{Dependencies: []graph.DependencyID{depID}, ChunkName: "lazy"}
	main.SetDependencies() // no sync deps
	main.AppendBlock(block)
	g.AddModule(main)

	entry := g.AddEntry("main", "main")
	mainDep := graph.NewESMDependency("./main")
	mainDepID := g.AddDependency(mainDep)
	entry.Dependencies = append(entry.Dependencies, mainDepID)
	_, diag := g.AddConnection(mainDepID, "", mainID)
	require.Nil(t, diag)
	_, diag = g.AddConnection(depID, mainID, lazyID)
	require.Nil(t, diag)

	result := NewBuilder(g).Build()

	require.Len(t, result.Chunks, 2)
	names := []string{result.Chunks[0].Name, result.Chunks[1].Name}
	require.Contains(t, names, "main")
	require.Contains(t, names, "lazy")
}

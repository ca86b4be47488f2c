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
package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockResolver resolves every request not listed in external to itself
// prefixed with "/src/" (listed ones resolve as global externals),
// mirroring the teacher's MockFileParser style of deterministic test doubles
// over a real filesystem/resolver.
type mockResolver struct {
	external map[string]bool
}

func (r *mockResolver) Resolve(ctx context.Context, dir, request string) (*ResolveResult, error) {
	if r.external != nil && r.external[request] {
		return &ResolveResult{External: true, ExternalOf: "global", Resource: request}, nil
	}
	return &ResolveResult{Resource: "/src/" + request}, nil
}

// mockFactory builds a NormalModule per resolved resource, content-addressed
// by resource path so repeated factorize calls for the same request dedupe.
type mockFactory struct {
	graphFor map[string][]string // resource -> child requests
}

func (f *mockFactory) Create(ctx context.Context, data CreateData) (*FactorizeResult, error) {
	if data.Resolved.External {
		id := NewModuleID("external", data.Resolved.Resource, "", "", "")
		return &FactorizeResult{Module: &ExternalModule{
			baseModule: baseModule{id: id, identifier: data.Resolved.Resource, sourceTypes: []SourceType{SourceTypeJavaScript}},
			Request:    data.Resolved.Resource,
			ExternalOf: data.Resolved.ExternalOf,
		}}, nil
	}
	id := NewModuleID("normal", data.Resolved.Resource, "", "", "")
	return &FactorizeResult{Module: &NormalModule{
		baseModule: baseModule{id: id, identifier: data.Resolved.Resource, sourceTypes: []SourceType{SourceTypeJavaScript}},
		Resource:   data.Resolved.Resource,
	}}, nil
}

func TestBuilderBuildEntrySingleModule(t *testing.T) {
	g := NewGraph()
	b := NewBuilder(g, &mockResolver{}, &mockFactory{}, nil)

	err := b.Run(context.Background(), BuildEntryParam{Name: "main", Request: "index.ts", Runtime: "main"})
	require.NoError(t, err)
	require.Empty(t, b.Diagnostics())

	require.Equal(t, 1, g.ModuleCount())
	require.Equal(t, 1, g.ConnectionCount())

	entries := g.Entries()
	require.Contains(t, entries, "main")
	require.Len(t, entries["main"].Dependencies, 1)
}

func TestBuilderDedupesRepeatedResource(t *testing.T) {
	g := NewGraph()
	b := NewBuilder(g, &mockResolver{}, &mockFactory{}, nil)

	require.NoError(t, b.Run(context.Background(), BuildEntryParam{Name: "a", Request: "shared.ts", Runtime: "a"}))
	require.NoError(t, b.Run(context.Background(), BuildEntryParam{Name: "b", Request: "shared.ts", Runtime: "b"}))

	require.Equal(t, 1, g.ModuleCount(), "factorizing the same resource twice must dedupe by ModuleID")
	require.Equal(t, 2, g.ConnectionCount(), "each entry still gets its own connection")
}

func TestBuilderExternalRequest(t *testing.T) {
	g := NewGraph()
	b := NewBuilder(g, &mockResolver{external: map[string]bool{"react": true}}, &mockFactory{}, nil)

	require.NoError(t, b.Run(context.Background(), BuildEntryParam{Name: "main", Request: "react", Runtime: "main"}))

	ids := g.AllModuleIDs()
	require.Len(t, ids, 1)
	m, ok := g.Module(ids[0])
	require.True(t, ok)
	require.Equal(t, ModuleTypeExternal, m.ModuleType())
}

func TestBuilderRemovedFilesPrunesModule(t *testing.T) {
	g := NewGraph()
	b := NewBuilder(g, &mockResolver{}, &mockFactory{}, nil)
	require.NoError(t, b.Run(context.Background(), BuildEntryParam{Name: "main", Request: "index.ts", Runtime: "main"}))
	require.Equal(t, 1, g.ModuleCount())

	require.NoError(t, b.Run(context.Background(), RemovedFilesParam{Files: []string{"/src/index.ts"}}))
	require.Equal(t, 0, g.ModuleCount())
}

func TestIsConsumeSharedDescendant(t *testing.T) {
	g := NewGraph()

	shared := &SharedModule{
		baseModule: baseModule{id: "shared-1", identifier: "shared-1"},
		SharedKey:  "react",
		Provide:    true,
	}
	g.AddModule(shared)

	consumer := &NormalModule{
		baseModule: baseModule{id: "consumer-1", identifier: "consumer-1"},
		Resource:   "consumer.ts",
	}
	g.AddModule(consumer)

	dep := &ESMDependency{baseDependency: baseDependency{request: "shared"}}
	depID := g.AddDependency(dep)
	_, diag := g.AddConnection(depID, shared.ID(), consumer.ID())
	require.Nil(t, diag)

	require.True(t, IsConsumeSharedDescendant(g, consumer.ID()))
	require.True(t, IsConsumeSharedDescendant(g, shared.ID()))

	unrelated := &NormalModule{baseModule: baseModule{id: "unrelated-1", identifier: "unrelated-1"}}
	g.AddModule(unrelated)
	require.False(t, IsConsumeSharedDescendant(g, unrelated.ID()))
}

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
	"testing"

	"bundlecore.dev/bundlecore/graph"
	"github.com/stretchr/testify/require"
)

func TestConcatenationScopeAssignsCollisionFreeIdents(t *testing.T) {
	g := graph.NewGraph()
	a := graph.NewNormalModule(graph.NewModuleID("js", "src/format.ts", "", "", ""), "src/format.ts")
	b := graph.NewNormalModule(graph.NewModuleID("js", "lib/format.ts", "", "", ""), "lib/format.ts")
	g.AddModule(a)
	g.AddModule(b)

	cs := NewConcatenationScope(g, []*graph.NormalModule{a, b})
	identA, ok := cs.IdentFor(a.ID())
	require.True(t, ok)
	identB, ok := cs.IdentFor(b.ID())
	require.True(t, ok)
	require.Equal(t, "format", identA)
	require.Equal(t, "format$2", identB)
}

func TestConcatenationScopeRenderWrapsEachModuleInItsOwnScope(t *testing.T) {
	g := graph.NewGraph()
	a := graph.NewNormalModule(graph.NewModuleID("js", "src/a.ts", "", "", ""), "src/a.ts")
	g.AddModule(a)

	cs := NewConcatenationScope(g, []*graph.NormalModule{a})
	out := cs.Render(map[graph.ModuleID]string{a.ID(): "export const x = 1;"})
	require.Contains(t, out, "const a = (() => {")
	require.Contains(t, out, "export const x = 1;")
	require.Contains(t, out, "})();")
}

func TestBaseIdentForSanitizesNonIdentifierCharacters(t *testing.T) {
	require.Equal(t, "my_component", baseIdentFor("src/my-component.ts"))
	require.Equal(t, "mod", baseIdentFor(""))
}

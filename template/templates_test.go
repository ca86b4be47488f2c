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

func TestESMTemplateRendersNamedAndNamespaceImports(t *testing.T) {
	dep := graph.NewESMDependency("./util.js",
		graph.ESMSpecifier{Name: "helper", Local: "helper"},
		graph.ESMSpecifier{Name: "*", Local: "utilNS"},
	)
	source := NewReplaceSource([]byte("helper();"))
	ctx := &Context{RequireIdent: "__require"}

	frags := ESMTemplate{}.Render(dep, source, ctx)
	require.Len(t, frags, 1)
	require.Equal(t, StageESMImports, frags[0].Stage)

	rendered := source.Render()
	require.Contains(t, rendered, `const { helper: helper } = __require("./util.js");`)
	require.Contains(t, rendered, `const utilNS = __require("./util.js");`)
}

func TestESMTemplateIgnoresNonESMDependency(t *testing.T) {
	dep := &graph.CommonJSDependency{}
	source := NewReplaceSource([]byte("x"))
	frags := ESMTemplate{}.Render(dep, source, &Context{RequireIdent: "r"})
	require.Nil(t, frags)
	require.Equal(t, "x", source.Render())
}

func TestDefaultRegistryResolvesKnownKinds(t *testing.T) {
	r := DefaultRegistry()
	_, ok := r.For("esm")
	require.True(t, ok)
	_, ok = r.For("commonjs")
	require.True(t, ok)
	_, ok = r.For("url")
	require.True(t, ok)
	_, ok = r.For("unknown")
	require.False(t, ok)
}

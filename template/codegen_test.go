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

func TestTransformModuleStripsTypeAnnotations(t *testing.T) {
	result, err := TransformModule("const x: number = 1;\nexport default x;", TransformOptions{Loader: LoaderTS})
	require.NoError(t, err)
	require.NotContains(t, result.Code, ": number")
	require.Contains(t, result.Code, "export default")
}

func TestTransformModuleSurfacesSyntaxErrors(t *testing.T) {
	_, err := TransformModule("const x = ;", TransformOptions{Loader: LoaderJS})
	require.Error(t, err)
}

func TestTransformCSSWrapsInConstructableStyleSheet(t *testing.T) {
	result, err := TransformCSS("body { color: red; }")
	require.NoError(t, err)
	require.Contains(t, result.Code, "new CSSStyleSheet()")
	require.Contains(t, result.Code, "sheet.replaceSync(")
	require.Contains(t, result.Code, "export default sheet;")
}

func TestEscapeForTemplateLiteralEscapesBacktickAndInterpolation(t *testing.T) {
	got := escapeForTemplateLiteral("a`b${c}</script>")
	require.NotContains(t, got, "${c}")
	require.Contains(t, got, "\\`")
	require.Contains(t, got, "\\{")
	require.Contains(t, got, "\\/script")
}

func TestPureAnnotationReflectsConsumeSharedDescent(t *testing.T) {
	g := graph.NewGraph()

	sharedID := graph.NewModuleID("shared", "react", "", "", "")
	shared := graph.NewSharedModule(sharedID, "react", false)
	g.AddModule(shared)

	leafID := graph.NewModuleID("js", "leaf.js", "", "", "")
	leaf := graph.NewNormalModule(leafID, "leaf.js")
	g.AddModule(leaf)

	dep := graph.NewESMDependency("react")
	depID := g.AddDependency(dep)
	_, diag := g.AddConnection(depID, sharedID, leafID)
	require.Nil(t, diag)

	otherID := graph.NewModuleID("js", "other.js", "", "", "")
	other := graph.NewNormalModule(otherID, "other.js")
	g.AddModule(other)

	require.Equal(t, "/*#__PURE__*/ ", PureAnnotation(g, leafID))
	require.Equal(t, "", PureAnnotation(g, otherID))
}

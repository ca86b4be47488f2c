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
package hooks_test

import (
	"testing"

	"bundlecore.dev/bundlecore/graph"
	"bundlecore.dev/bundlecore/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverDispatchesBeforeResolveToRegisteredPlugins(t *testing.T) {
	d := hooks.NewDriver()
	var seen string
	d.BeforeResolve.Tap("record-request", 0, func(p *hooks.ResolveParam) error {
		seen = p.Request
		return nil
	})

	err := d.BeforeResolve.Run(&hooks.ResolveParam{Context: ".", Request: "./util.ts"})
	require.NoError(t, err)
	assert.Equal(t, "./util.ts", seen)
}

func TestDriverCompilationHooksAreIndependentChains(t *testing.T) {
	d := hooks.NewDriver()
	var finishRan, optimizeRan bool
	d.FinishModules.Tap("a", 0, func(*hooks.CompilationParam) error { finishRan = true; return nil })
	d.OptimizeModules.Tap("b", 0, func(*hooks.CompilationParam) error { optimizeRan = true; return nil })

	g := graph.NewGraph()
	require.NoError(t, d.FinishModules.Run(&hooks.CompilationParam{Graph: g}))
	assert.True(t, finishRan)
	assert.False(t, optimizeRan, "OptimizeModules should not fire from FinishModules.Run")
}

func TestDriverUntappedHookIsNoOp(t *testing.T) {
	d := hooks.NewDriver()
	assert.NoError(t, d.Seal.Run(&hooks.CompilationParam{}))
}

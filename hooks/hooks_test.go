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
	"errors"
	"testing"

	"bundlecore.dev/bundlecore/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookRunsTapsInStageOrder(t *testing.T) {
	h := hooks.NewHook[int]("test")
	var order []string

	h.Tap("third", 30, func(int) error { order = append(order, "third"); return nil })
	h.Tap("first", 10, func(int) error { order = append(order, "first"); return nil })
	h.Tap("second", 20, func(int) error { order = append(order, "second"); return nil })

	require.NoError(t, h.Run(1))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestHookRunStopsAtFirstError(t *testing.T) {
	h := hooks.NewHook[int]("test")
	var ran []string

	h.Tap("a", 1, func(int) error { ran = append(ran, "a"); return nil })
	h.Tap("b", 2, func(int) error { ran = append(ran, "b"); return errors.New("boom") })
	h.Tap("c", 3, func(int) error { ran = append(ran, "c"); return nil })

	err := h.Run(1)
	require.Error(t, err)
	assert.ErrorContains(t, err, "test/b")
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestHookRunRecoversPanicAsError(t *testing.T) {
	h := hooks.NewHook[int]("test")
	h.Tap("panics", 1, func(int) error { panic("kaboom") })

	err := h.Run(1)
	require.Error(t, err)
	assert.ErrorContains(t, err, "test/panics")
	assert.ErrorContains(t, err, "kaboom")
}

func TestHookRunAllCollectsEveryError(t *testing.T) {
	h := hooks.NewHook[int]("test")
	h.Tap("a", 1, func(int) error { return errors.New("fail-a") })
	h.Tap("b", 2, func(int) error { panic("fail-b") })
	h.Tap("c", 3, func(int) error { return nil })

	errs := h.RunAll(1)
	require.Len(t, errs, 2)
	assert.ErrorContains(t, errs[0], "fail-a")
	assert.ErrorContains(t, errs[1], "fail-b")
}

func TestHookPassesParamToEachTap(t *testing.T) {
	type param struct{ name string }
	h := hooks.NewHook[param]("test")
	var got param
	h.Tap("capture", 1, func(p param) error { got = p; return nil })

	require.NoError(t, h.Run(param{name: "entry.ts"}))
	assert.Equal(t, "entry.ts", got.name)
}

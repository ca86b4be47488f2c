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

	"github.com/stretchr/testify/require"
)

func TestReplaceSourceAppliesNonOverlappingEdits(t *testing.T) {
	rs := NewReplaceSource([]byte("const x = require('a');"))
	require.True(t, rs.Replace(10, 17, "__mod_a"))
	got := rs.Render()
	require.Equal(t, "const x = __mod_a('a');", got)
}

func TestReplaceSourceRejectsOverlap(t *testing.T) {
	rs := NewReplaceSource([]byte("0123456789"))
	require.True(t, rs.Replace(2, 5, "X"))
	require.False(t, rs.Replace(4, 6, "Y"))
}

func TestReplaceSourceInsertOrdersBeforeReplaceAtSamePosition(t *testing.T) {
	rs := NewReplaceSource([]byte("body"))
	rs.Insert(0, "/* header */ ")
	require.True(t, rs.Replace(0, 4, "payload"))
	require.Equal(t, "/* header */ payload", rs.Render())
}

func TestReplaceSourceInsertionsAtSamePositionPreserveCallOrder(t *testing.T) {
	rs := NewReplaceSource([]byte("x"))
	rs.Insert(0, "a")
	rs.Insert(0, "b")
	require.Equal(t, "abx", rs.Render())
}

func TestMergeDeduplicatesByKeyAndOrdersByStageThenPriority(t *testing.T) {
	fragments := []InitFragment{
		{Key: "const", Stage: StageConstants, Priority: 0, Content: "c"},
		{Key: "import-a", Stage: StageESMImports, Priority: 1, Content: "ia1"},
		{Key: "import-a", Stage: StageESMImports, Priority: 1, Content: "ia2-should-not-appear"},
		{Key: "import-b", Stage: StageESMImports, Priority: 0, Content: "ib"},
	}
	merged := Merge(fragments)
	require.Len(t, merged, 3)
	require.Equal(t, "ib", merged[0].Content)
	require.Equal(t, "ia1", merged[1].Content)
	require.Equal(t, "c", merged[2].Content)
}

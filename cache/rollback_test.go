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
package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRollbackMapCheckpointReset(t *testing.T) {
	m := NewRollbackMap[string, int]()
	m.Set("a", 1)
	m.Checkpoint()
	m.Set("a", 2)
	m.Set("b", 3)
	m.Delete("a")

	v, ok := m.Get("a")
	require.False(t, ok)
	v, ok = m.Get("b")
	require.True(t, ok)
	require.Equal(t, 3, v)

	m.Reset()

	v, ok = m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
	_, ok = m.Get("b")
	require.False(t, ok, "b was added entirely after the checkpoint, so reset removes it")
}

func TestRollbackMapCommitPreventsReset(t *testing.T) {
	m := NewRollbackMap[string, int]()
	m.Checkpoint()
	m.Set("a", 1)
	m.Commit()

	// Reset without a matching Checkpoint is a no-op.
	m.Reset()
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestRollbackMapNestedCheckpoints(t *testing.T) {
	m := NewRollbackMap[string, int]()
	m.Set("a", 1)
	m.Checkpoint()
	m.Set("a", 2)
	m.Checkpoint()
	m.Set("a", 3)

	m.Reset() // undo innermost checkpoint only
	v, _ := m.Get("a")
	require.Equal(t, 2, v)

	m.Reset() // undo outer checkpoint
	v, _ = m.Get("a")
	require.Equal(t, 1, v)
}

func TestRollbackMapSnapshotIsIndependent(t *testing.T) {
	m := NewRollbackMap[string, int]()
	m.Set("a", 1)
	snap := m.Snapshot()
	m.Set("a", 2)
	require.Equal(t, 1, snap["a"])
}

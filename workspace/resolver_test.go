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
package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bundlecore.dev/bundlecore/workspace"
	"github.com/stretchr/testify/require"
)

func TestSpecifierResolverResolvesLocalFileWithExtensionProbing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "util.ts"), []byte("export {}"), 0o644))

	fs := workspace.NewDualFileSystem(dir, t.TempDir())
	r := workspace.NewSpecifierResolver(fs, nil)

	result, err := r.Resolve(context.Background(), ".", "./util")
	require.NoError(t, err)
	require.False(t, result.External)
	require.Equal(t, "util.ts", result.Resource)
}

func TestSpecifierResolverClassifiesBareAndNpmSpecifiersAsExternal(t *testing.T) {
	fs := workspace.NewDualFileSystem(t.TempDir(), t.TempDir())
	r := workspace.NewSpecifierResolver(fs, nil)

	result, err := r.Resolve(context.Background(), ".", "react")
	require.NoError(t, err)
	require.True(t, result.External)

	result, err = r.Resolve(context.Background(), ".", "npm:lodash@4")
	require.NoError(t, err)
	require.True(t, result.External)
	require.Equal(t, "module", result.ExternalOf)
}

func TestSpecifierResolverHonorsExternalsOverride(t *testing.T) {
	fs := workspace.NewDualFileSystem(t.TempDir(), t.TempDir())
	r := workspace.NewSpecifierResolver(fs, map[string]string{"jquery": "global"})

	result, err := r.Resolve(context.Background(), ".", "jquery")
	require.NoError(t, err)
	require.True(t, result.External)
	require.Equal(t, "global", result.ExternalOf)
}

func TestSpecifierResolverReturnsErrorForMissingLocalFile(t *testing.T) {
	fs := workspace.NewDualFileSystem(t.TempDir(), t.TempDir())
	r := workspace.NewSpecifierResolver(fs, nil)

	_, err := r.Resolve(context.Background(), ".", "./does-not-exist")
	require.Error(t, err)
}

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
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"bundlecore.dev/bundlecore/chunk"
	"bundlecore.dev/bundlecore/cmd/config"
	"bundlecore.dev/bundlecore/compiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveProjectDirFromConfigDefaultsToDot(t *testing.T) {
	assert.Equal(t, ".", resolveProjectDirFromConfig(&config.Config{}))
	assert.Equal(t, "/src", resolveProjectDirFromConfig(&config.Config{ProjectDir: "/src"}))
}

func TestResolveCacheLocationDefaults(t *testing.T) {
	dir, version := resolveCacheLocation(&config.Config{}, "/project")
	assert.Equal(t, filepath.Join("/project", ".cache", "bundlecore"), dir)
	assert.Equal(t, "v1", version)
}

func TestResolveCacheLocationHonorsConfig(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{Dir: "/custom/cache", Version: "v7"}}
	dir, version := resolveCacheLocation(cfg, "/project")
	assert.Equal(t, "/custom/cache", dir)
	assert.Equal(t, "v7", version)
}

func TestCacheGroupsFromConfigTranslatesFields(t *testing.T) {
	groups := cacheGroupsFromConfig([]config.CacheGroupConfig{
		{Name: "vendor", Test: `node_modules`, Priority: 10, MinChunks: 2},
	})
	require.Len(t, groups, 1)
	assert.Equal(t, chunk.CacheGroup{Name: "vendor", Test: "node_modules", Priority: 10, MinChunks: 2}, groups[0])
}

func TestWriteAssetsWritesFilesUnderOutputDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Output: config.OutputConfig{Dir: dir}}
	result := &compiler.Result{Assets: map[string]string{"main.js": "console.log(1);"}}

	require.NoError(t, writeAssets(cfg, result))

	content, err := os.ReadFile(filepath.Join(dir, "main.js"))
	require.NoError(t, err)
	assert.Equal(t, "console.log(1);", string(content))
}

func TestWriteAssetsWithNoOutputDirDoesNotError(t *testing.T) {
	cfg := &config.Config{}
	result := &compiler.Result{Assets: map[string]string{"main.js": "console.log(1);"}}
	assert.NoError(t, writeAssets(cfg, result))
}

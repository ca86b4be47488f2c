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
package factory

import (
	"context"
	"io/fs"
	"testing"

	"bundlecore.dev/bundlecore/graph"
	"bundlecore.dev/bundlecore/parser"
	"github.com/stretchr/testify/require"
)

type memFS struct {
	files map[string][]byte
}

func (f *memFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return f.files[path], nil
}
func (f *memFS) ReadDir(ctx context.Context, path string) ([]fs.DirEntry, error) { return nil, nil }
func (f *memFS) Stat(ctx context.Context, path string) (fs.FileInfo, error)     { return nil, nil }
func (f *memFS) Realpath(ctx context.Context, path string) (string, error)      { return path, nil }

func TestNormalModuleFactoryParsesImportsOnFirstFactorize(t *testing.T) {
	qm, err := parser.NewQueryManager()
	require.NoError(t, err)
	defer qm.Close()

	fsys := &memFS{files: map[string][]byte{
		"src/entry.ts": []byte("import { helper } from \"./helper.js\";\nhelper();"),
	}}
	f := NewNormalModuleFactory(fsys, qm)

	dep := graph.NewESMDependency("./entry.ts")
	result, err := f.Create(context.Background(), graph.CreateData{
		Dependency: dep,
		Resolved:   &graph.ResolveResult{Resource: "src/entry.ts"},
		Context:    ".",
	})
	require.NoError(t, err)
	nm, ok := result.Module.(*graph.NormalModule)
	require.True(t, ok)
	require.Equal(t, "src/entry.ts", nm.Resource)
	require.Len(t, result.NewDependencies, 1)
	esm, ok := result.NewDependencies[0].(*graph.ESMDependency)
	require.True(t, ok)
	require.Equal(t, "./helper.js", esm.Request())
}

func TestNormalModuleFactoryDoesNotReparseOnSecondFactorize(t *testing.T) {
	qm, err := parser.NewQueryManager()
	require.NoError(t, err)
	defer qm.Close()

	fsys := &memFS{files: map[string][]byte{"src/shared.ts": []byte(`export const x = 1;`)}}
	f := NewNormalModuleFactory(fsys, qm)

	data := graph.CreateData{Resolved: &graph.ResolveResult{Resource: "src/shared.ts"}, Context: "."}
	first, err := f.Create(context.Background(), data)
	require.NoError(t, err)
	require.Empty(t, first.NewDependencies)

	second, err := f.Create(context.Background(), data)
	require.NoError(t, err)
	require.Empty(t, second.NewDependencies)
}

func TestNormalModuleFactoryProducesExternalModuleForExternalResolution(t *testing.T) {
	qm, err := parser.NewQueryManager()
	require.NoError(t, err)
	defer qm.Close()
	f := NewNormalModuleFactory(&memFS{files: map[string][]byte{}}, qm)

	result, err := f.Create(context.Background(), graph.CreateData{
		Resolved: &graph.ResolveResult{Resource: "react", External: true, ExternalOf: "global"},
	})
	require.NoError(t, err)
	ext, ok := result.Module.(*graph.ExternalModule)
	require.True(t, ok)
	require.Equal(t, "react", ext.Request)
	require.Equal(t, "global", ext.ExternalOf)
}

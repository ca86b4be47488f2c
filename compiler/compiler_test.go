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
package compiler_test

import (
	"context"
	"io/fs"
	"path"
	"strings"
	"testing"

	"bundlecore.dev/bundlecore/compiler"
	"bundlecore.dev/bundlecore/factory"
	"bundlecore.dev/bundlecore/graph"
	"bundlecore.dev/bundlecore/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFS struct {
	files map[string][]byte
}

func (f *memFS) ReadFile(_ context.Context, p string) ([]byte, error) {
	content, ok := f.files[p]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return content, nil
}
func (f *memFS) ReadDir(context.Context, string) ([]fs.DirEntry, error) { return nil, nil }
func (f *memFS) Stat(context.Context, string) (fs.FileInfo, error)     { return nil, nil }
func (f *memFS) Realpath(_ context.Context, p string) (string, error)  { return p, nil }

// stubResolver resolves "./x" relative to dir by joining and stripping the
// leading "./", classifies any request not starting with "." as external,
// and returns fs.ErrNotExist for a relative request not found in files.
type stubResolver struct {
	files map[string][]byte
}

func (r *stubResolver) Resolve(_ context.Context, dir, request string) (*graph.ResolveResult, error) {
	if !strings.HasPrefix(request, ".") {
		return &graph.ResolveResult{Resource: request, External: true, ExternalOf: "module"}, nil
	}
	resolved := path.Join(dir, request)
	if _, ok := r.files[resolved]; ok {
		return &graph.ResolveResult{Resource: resolved}, nil
	}
	return nil, fs.ErrNotExist
}

func TestCompilerBuildAllProducesOneAssetPerEntryChunk(t *testing.T) {
	files := map[string][]byte{
		"entry.ts":  []byte("import { helper } from \"./helper.ts\";\nhelper();"),
		"helper.ts": []byte(`export function helper() { return 1; }`),
	}
	qm, err := parser.NewQueryManager()
	require.NoError(t, err)
	defer qm.Close()

	fsys := &memFS{files: files}
	c := compiler.New(compiler.Options{
		FS:       fsys,
		Resolver: &stubResolver{files: files},
		Factory:  factory.NewNormalModuleFactory(fsys, qm),
		Entries:  []compiler.EntryConfig{{Name: "main", Request: "./entry.ts", Runtime: "web"}},
	})

	result, err := c.BuildAll(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, result.Assets)

	var combined string
	for _, code := range result.Assets {
		combined += code
	}
	assert.Contains(t, combined, "helper")
}

func TestCompilerInlinesConstantAndElidesUnusedExport(t *testing.T) {
	files := map[string][]byte{
		"entry.ts": []byte("import { VERSION } from \"./consts.ts\";\nconsole.log(VERSION);"),
		"consts.ts": []byte(
			"export const VERSION = \"1.2.3\";\n" +
				"export const UNUSED = \"dead\";\n",
		),
	}
	qm, err := parser.NewQueryManager()
	require.NoError(t, err)
	defer qm.Close()

	fsys := &memFS{files: files}
	c := compiler.New(compiler.Options{
		FS:       fsys,
		Resolver: &stubResolver{files: files},
		Factory:  factory.NewNormalModuleFactory(fsys, qm),
		Entries:  []compiler.EntryConfig{{Name: "main", Request: "./entry.ts", Runtime: "web"}},
	})

	result, err := c.BuildAll(context.Background())
	require.NoError(t, err)

	var combined string
	for _, code := range result.Assets {
		combined += code
	}
	assert.Contains(t, combined, `"1.2.3"`, "the used constant is inlined directly")
	assert.NotContains(t, combined, "UNUSED", "the never-imported export is elided from the module source")
}

func TestCompilerGraphExposesBuiltModules(t *testing.T) {
	files := map[string][]byte{"entry.ts": []byte(`export const x = 1;`)}
	qm, err := parser.NewQueryManager()
	require.NoError(t, err)
	defer qm.Close()

	fsys := &memFS{files: files}
	c := compiler.New(compiler.Options{
		FS:       fsys,
		Resolver: &stubResolver{files: files},
		Factory:  factory.NewNormalModuleFactory(fsys, qm),
		Entries:  []compiler.EntryConfig{{Name: "main", Request: "./entry.ts", Runtime: "web"}},
	})

	_, err = c.BuildAll(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, c.Graph().ModuleCount(), 1)
}

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

	"bundlecore.dev/bundlecore/cache"
	"bundlecore.dev/bundlecore/chunk"
	"bundlecore.dev/bundlecore/cmd/config"
	"bundlecore.dev/bundlecore/compiler"
	"bundlecore.dev/bundlecore/factory"
	"bundlecore.dev/bundlecore/internal/logging"
	"bundlecore.dev/bundlecore/parser"
	"bundlecore.dev/bundlecore/workspace"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the configured entries once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		c, cleanup, err := newCompilerFromConfig(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := c.BuildAll(cmd.Context())
		if err != nil {
			return err
		}
		return writeAssets(cfg, result)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

// newCompilerFromConfig wires a compiler.Compiler from a decoded Config,
// grounded on the teacher's NewGenerateSession constructor, which performs
// the same "build every collaborator from config, return one reusable
// object" assembly for the manifest generator.
func newCompilerFromConfig(cfg *config.Config) (*compiler.Compiler, func(), error) {
	projectDir := resolveProjectDirFromConfig(cfg)
	cacheDir, version := resolveCacheLocation(cfg, projectDir)

	fs := workspace.NewDualFileSystem(projectDir, filepath.Join(cacheDir, "http"))
	resolver := workspace.NewSpecifierResolver(fs, nil)

	qm, err := parser.NewQueryManager()
	if err != nil {
		return nil, nil, err
	}

	mf := factory.NewNormalModuleFactory(fs, qm)
	storage := cache.Open(cacheDir, version)

	entries := make([]compiler.EntryConfig, 0, len(cfg.Entries))
	for _, e := range cfg.Entries {
		entries = append(entries, compiler.EntryConfig{Name: e.Name, Request: e.Request, Runtime: e.Runtime})
	}

	c := compiler.New(compiler.Options{
		FS:          fs,
		Resolver:    resolver,
		Factory:     mf,
		Storage:     storage,
		Entries:     entries,
		CacheGroups: cacheGroupsFromConfig(cfg.SplitChunks),
		Scope:       cfg.Cache.Scope,
	})

	cleanup := func() {
		qm.Close()
		if err := storage.Close(); err != nil {
			logging.Warning("build: cache close failed: %v", err)
		}
	}
	return c, cleanup, nil
}

// resolveProjectDirFromConfig defaults an empty Config.ProjectDir to the
// current directory, shared by every subcommand that builds a collaborator
// set directly from a decoded Config.
func resolveProjectDirFromConfig(cfg *config.Config) string {
	if cfg.ProjectDir == "" {
		return "."
	}
	return cfg.ProjectDir
}

// resolveCacheLocation applies the same cache-dir/version defaults the
// teacher's config resolution used for its output paths, shared between the
// build/watch compiler wiring and the cache subcommands so both sides agree
// on where a project's cache lives without a compiler.Compiler in hand.
func resolveCacheLocation(cfg *config.Config, projectDir string) (dir, version string) {
	dir = cfg.Cache.Dir
	if dir == "" {
		dir = filepath.Join(projectDir, ".cache", "bundlecore")
	}
	version = cfg.Cache.Version
	if version == "" {
		version = "v1"
	}
	return dir, version
}

// cacheGroupsFromConfig translates config.CacheGroupConfig into
// chunk.CacheGroup, the shape compiler.Options.CacheGroups (and in turn
// chunk.NewBuilder) expects.
func cacheGroupsFromConfig(groups []config.CacheGroupConfig) []chunk.CacheGroup {
	out := make([]chunk.CacheGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, chunk.CacheGroup{Name: g.Name, Test: g.Test, Priority: g.Priority, MinChunks: g.MinChunks})
	}
	return out
}

// writeAssets writes a Result's emitted assets to cfg.Output.Dir, or, with
// no configured output directory, logs every asset's content through
// logging.Info instead of writing files, matching the teacher's
// writeManifest "no output path configured: skip writing" fallback.
func writeAssets(cfg *config.Config, result *compiler.Result) error {
	if cfg.Output.Dir == "" {
		for name, content := range result.Assets {
			logging.Info("=== %s ===\n%s", name, content)
		}
		return nil
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return err
	}
	for name, content := range result.Assets {
		path := filepath.Join(cfg.Output.Dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
		logging.Success("wrote %s", path)
	}
	for _, d := range result.Diagnostics {
		logging.Warning("%s", d.Error())
	}
	return nil
}

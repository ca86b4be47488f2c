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
	"fmt"

	"bundlecore.dev/bundlecore/cache"
	"bundlecore.dev/bundlecore/internal/logging"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reclaim the persistent build cache",
}

var cacheGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove cache scopes written by a stale cache-format version",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, cleanup, err := openCacheFromConfig()
		if err != nil {
			return err
		}
		defer cleanup()

		removed, err := storage.GC()
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			logging.Info("cache gc: nothing to remove")
			return nil
		}
		for _, scope := range removed {
			logging.Success("cache gc: removed stale scope %q", scope)
		}
		return nil
	},
}

var cacheInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List every cache scope and its metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, cleanup, err := openCacheFromConfig()
		if err != nil {
			return err
		}
		defer cleanup()

		infos, err := storage.Inspect()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("no cache scopes found")
			return nil
		}
		for _, info := range infos {
			status := "ok"
			if info.Stale {
				status = "stale"
			}
			fmt.Printf("%-20s version=%-8s pack=%-36s created=%-25s %s\n",
				info.Scope, info.Version, info.PackID, info.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), status)
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheGCCmd)
	cacheCmd.AddCommand(cacheInspectCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCacheFromConfig opens just the cache.Storage collaborator from the
// resolved Config, for the cache subcommands that have no need to assemble
// a full compiler.Compiler.
func openCacheFromConfig() (*cache.Storage, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	projectDir := resolveProjectDirFromConfig(cfg)
	cacheDir, version := resolveCacheLocation(cfg, projectDir)

	storage := cache.Open(cacheDir, version)
	cleanup := func() {
		if err := storage.Close(); err != nil {
			logging.Warning("cache: close failed: %v", err)
		}
	}
	return storage, cleanup, nil
}

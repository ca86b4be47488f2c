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
	"context"

	"bundlecore.dev/bundlecore/graph"
	"bundlecore.dev/bundlecore/internal/logging"
	"bundlecore.dev/bundlecore/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build the configured entries, then rebuild incrementally on change",
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

		ctx := cmd.Context()

		result, err := c.BuildAll(ctx)
		if err != nil {
			return err
		}
		if err := writeAssets(cfg, result); err != nil {
			return err
		}

		globs := cfg.Watch.Globs
		if len(globs) == 0 {
			globs = []string{"**/*.{js,jsx,ts,tsx,css}"}
		}

		projectDir := cfg.ProjectDir
		if projectDir == "" {
			projectDir = "."
		}

		rebuild := func(rebuildCtx context.Context, param graph.UpdateParam) error {
			result, err := c.Update(rebuildCtx, param)
			if err != nil {
				logging.Warning("watch: rebuild failed: %v", err)
				return err
			}
			return writeAssets(cfg, result)
		}

		session := watch.NewSession(projectDir, globs, rebuild)

		logging.Info("watching for changes (globs: %v)", globs)
		return session.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

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
// Package config defines bundlecore's project configuration shape and its
// two loaders, grounded on the teacher's cmd/config/config.go: a
// mapstructure-tagged struct read by viper for the primary YAML path, plus
// an alternate github.com/BurntSushi/toml loader for toml-flavored project
// files behind the same Config struct.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// CacheGroupConfig describes one split-chunks cache group, matching
// chunk.CacheGroup's fields one-to-one so it can be decoded straight off
// viper/toml without a separate translation struct.
type CacheGroupConfig struct {
	Name      string `mapstructure:"name" yaml:"name" toml:"name"`
	Test      string `mapstructure:"test" yaml:"test" toml:"test"`
	Priority  int    `mapstructure:"priority" yaml:"priority" toml:"priority"`
	MinChunks int    `mapstructure:"minChunks" yaml:"minChunks" toml:"minChunks"`
}

// EntryConfig names one build entry point.
type EntryConfig struct {
	Name    string `mapstructure:"name" yaml:"name" toml:"name"`
	Request string `mapstructure:"request" yaml:"request" toml:"request"`
	Runtime string `mapstructure:"runtime" yaml:"runtime" toml:"runtime"`
}

// OutputConfig controls where a build writes its emitted assets.
type OutputConfig struct {
	Dir        string `mapstructure:"dir" yaml:"dir" toml:"dir"`
	PublicPath string `mapstructure:"publicPath" yaml:"publicPath" toml:"publicPath"`
}

// CacheConfig controls the persistent cache's on-disk location and version
// tag, matching spec.md §4.4's "<cache_root>/<version>/<scope>/" layout.
type CacheConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir" toml:"dir"`
	Version string `mapstructure:"version" yaml:"version" toml:"version"`
	Scope   string `mapstructure:"scope" yaml:"scope" toml:"scope"`
}

// WatchConfig controls watch mode's glob scoping, grounded on the teacher's
// WatchSession globs list.
type WatchConfig struct {
	Globs []string `mapstructure:"globs" yaml:"globs" toml:"globs"`
}

// Config is bundlecore's project configuration, decoded from
// .config/bundlecore.yaml (viper, via cmd's loadConfig) or a toml-flavored
// project file (BurntSushi/toml, via LoadTOML).
type Config struct {
	ProjectDir  string             `mapstructure:"projectDir" yaml:"projectDir" toml:"projectDir"`
	Entries     []EntryConfig      `mapstructure:"entries" yaml:"entries" toml:"entries"`
	SplitChunks []CacheGroupConfig `mapstructure:"splitChunks" yaml:"splitChunks" toml:"splitChunks"`
	Output      OutputConfig       `mapstructure:"output" yaml:"output" toml:"output"`
	Cache       CacheConfig        `mapstructure:"cache" yaml:"cache" toml:"cache"`
	Watch       WatchConfig        `mapstructure:"watch" yaml:"watch" toml:"watch"`
	Verbose     bool               `mapstructure:"verbose" yaml:"verbose" toml:"verbose"`
}

// Clone deep-copies the slice fields so a caller can mutate a derived
// config (e.g. a single-entry watch rebuild) without aliasing the
// original's slices.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Entries != nil {
		clone.Entries = make([]EntryConfig, len(c.Entries))
		copy(clone.Entries, c.Entries)
	}
	if c.SplitChunks != nil {
		clone.SplitChunks = make([]CacheGroupConfig, len(c.SplitChunks))
		copy(clone.SplitChunks, c.SplitChunks)
	}
	if c.Watch.Globs != nil {
		clone.Watch.Globs = make([]string, len(c.Watch.Globs))
		copy(clone.Watch.Globs, c.Watch.Globs)
	}
	return &clone
}

// Validate rejects configurations that can't produce a build: no entries,
// or a cache group test pattern missing its name.
func (c *Config) Validate() error {
	if len(c.Entries) == 0 {
		return fmt.Errorf("config: at least one entry is required")
	}
	for _, e := range c.Entries {
		if e.Name == "" || e.Request == "" {
			return fmt.Errorf("config: entry missing name or request: %+v", e)
		}
	}
	for _, cg := range c.SplitChunks {
		if cg.Name == "" {
			return fmt.Errorf("config: splitChunks cache group missing name (test=%q)", cg.Test)
		}
	}
	return nil
}

// LoadTOML reads a toml-flavored project file into a Config, the alternate
// loader path exercising github.com/BurntSushi/toml behind the same Config
// struct viper decodes into for the YAML path.
func LoadTOML(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("load toml config %s: %w", path, err)
	}
	return &cfg, nil
}

// IsPackageSpecifier reports whether spec names an npm package rather than
// a local entry path, ported from the teacher's config package helper.
func IsPackageSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "npm:")
}

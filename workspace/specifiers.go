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
package workspace

import (
	"errors"
	"strings"
)

// IsPackageSpecifier checks if a string is an npm or jsr package specifier,
// ported verbatim from the teacher's workspace.go: the bundler's resolver
// needs the same classification to route such a request straight to an
// ExternalModule instead of attempting filesystem resolution.
func IsPackageSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "npm:") || strings.HasPrefix(spec, "jsr:")
}

// IsURLSpecifier checks if a string is an HTTP(S) URL.
func IsURLSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "https://") || strings.HasPrefix(spec, "http://")
}

// ParseNpmSpecifier parses a spec like "@scope/pkg@1.2.3" or "pkg@1.2.3"
// into its name and version, dropping an "npm:"/"jsr:" prefix; a missing
// version is reported as "latest".
func ParseNpmSpecifier(spec string) (name, version string, err error) {
	spec = strings.TrimPrefix(spec, "npm:")
	spec = strings.TrimPrefix(spec, "jsr:")
	atIndex := strings.LastIndex(spec, "@")

	if atIndex <= 0 { // <= 0 handles scoped packages like @foo/bar
		name = spec
		version = "latest"
	} else {
		name = spec[:atIndex]
		version = spec[atIndex+1:]
	}

	if name == "" {
		return "", "", errors.New("invalid npm specifier: missing package name")
	}
	if version == "" {
		version = "latest"
	}
	return name, version, nil
}

// IsGlobPattern reports whether pattern contains any of the glob
// metacharacters *?[]{}.
func IsGlobPattern(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[]{}")
}

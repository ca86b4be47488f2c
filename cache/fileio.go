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
	"os"
	"path/filepath"
)

// readFileCompat and writeFileCompat wrap os file access for the
// scope_meta.json sidecar; kept as thin named wrappers (rather than calling
// os directly from storage.go) so a future swap to an injected
// graph.ReadableFileSystem for metadata I/O touches one place.
func readFileCompat(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func writeFileCompat(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

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
	"context"
	"encoding/hex"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ClassificationKind selects how a path's freshness is validated, mirroring
// the distinction the teacher's workspace package draws between local
// files (cheap mtime check), remote/HTTP-cached resources (content hash,
// since mtime is meaningless across machines), and package-manager-managed
// dependencies under node_modules. Managed entries are compared by mtime
// (plus PathEntry.Version, which Take leaves empty); package.json is not
// read.
type ClassificationKind int

const (
	ClassifyMTime ClassificationKind = iota
	ClassifyContentHash
	ClassifyManaged
)

// PathEntry records what a Snapshot observed about one path the last time
// it was taken.
type PathEntry struct {
	Path       string
	Kind       ClassificationKind
	ModTime    time.Time
	ContentHash string
	Version    string // for ClassifyManaged
}

// FS is the minimal filesystem surface Snapshot needs; graph.ReadableFileSystem
// satisfies it, and tests can supply a fake without depending on graph.
type FS interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Stat(ctx context.Context, path string) (fs.FileInfo, error)
}

// Snapshot captures the state of a set of paths at one point in time, later
// compared against a fresh Snapshot to detect which paths changed.
type Snapshot struct {
	Entries map[string]PathEntry
}

// Take walks paths and classifies each one, hashing content for remote/HTTP
// paths (classified by a "://" in the path), marking anything under a
// node_modules/ directory as ClassifyManaged (recorded by mtime only; no
// version is read), and using mtime for ordinary local files — the cheapest check that
// is still sound for a filesystem that isn't touched by anything other than
// the build and the user's editor.
func Take(ctx context.Context, f FS, paths []string) (*Snapshot, error) {
	snap := &Snapshot{Entries: make(map[string]PathEntry, len(paths))}
	for _, p := range paths {
		entry, err := classify(ctx, f, p)
		if err != nil {
			return nil, err
		}
		snap.Entries[p] = entry
	}
	return snap, nil
}

func classify(ctx context.Context, f FS, path string) (PathEntry, error) {
	switch {
	case strings.Contains(path, "://"):
		data, err := f.ReadFile(ctx, path)
		if err != nil {
			return PathEntry{}, err
		}
		return PathEntry{Path: path, Kind: ClassifyContentHash, ContentHash: ContentHash(data)}, nil
	case strings.Contains(path, filepath.FromSlash("node_modules/")):
		info, err := f.Stat(ctx, path)
		if err != nil {
			return PathEntry{}, err
		}
		return PathEntry{Path: path, Kind: ClassifyManaged, ModTime: info.ModTime()}, nil
	default:
		info, err := f.Stat(ctx, path)
		if err != nil {
			return PathEntry{}, err
		}
		return PathEntry{Path: path, Kind: ClassifyMTime, ModTime: info.ModTime()}, nil
	}
}

// ContentHash hashes data with blake2b-256 and returns the first 32 hex
// characters (128 bits) of the digest, the fingerprint Take records for
// content-hashed paths.
func ContentHash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])[:32]
}

// Diff compares two Snapshots and returns the paths that changed
// (different hash/mtime/version) or were added/removed.
func Diff(before, after *Snapshot) (modified, removed, added []string) {
	for p, a := range after.Entries {
		b, ok := before.Entries[p]
		if !ok {
			added = append(added, p)
			continue
		}
		if !equalEntry(a, b) {
			modified = append(modified, p)
		}
	}
	for p := range before.Entries {
		if _, ok := after.Entries[p]; !ok {
			removed = append(removed, p)
		}
	}
	return
}

func equalEntry(a, b PathEntry) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ClassifyContentHash:
		return a.ContentHash == b.ContentHash
	case ClassifyManaged:
		return a.Version == b.Version && a.ModTime.Equal(b.ModTime)
	default:
		return a.ModTime.Equal(b.ModTime)
	}
}

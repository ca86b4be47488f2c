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
// Package bundleerr defines the sentinel error taxonomy and diagnostic
// aggregation used across the compiler pipeline.
package bundleerr

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors identifying the stage a failure occurred in. Wrap these
// with fmt.Errorf("...: %w", ErrX) so callers can errors.Is against a stage
// without caring about the underlying cause.
var (
	ErrResolve   = errors.New("resolve failed")
	ErrFactorize = errors.New("factorize failed")
	ErrBuild     = errors.New("build failed")
	ErrGraph     = errors.New("graph invariant violated")
	ErrStorage   = errors.New("cache storage failed")
	ErrCancelled = errors.New("operation cancelled")
)

// Debug gates whether Graph invariant violations panic (useful for catching
// bugs while developing the builder) or are downgraded to a fatal
// Diagnostic. There is no build-tag split: flipping this at runtime keeps
// test binaries identical to release binaries.
var Debug = false

// Severity classifies a Diagnostic for sorting and CLI/log routing.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Location is a 1-indexed source position, zero value meaning "unknown".
type Location struct {
	Line   int
	Column int
}

// Diagnostic attaches a severity and source location to an underlying error
// so it can be sorted, deduplicated and rendered consistently regardless of
// which pipeline stage produced it.
type Diagnostic struct {
	Severity Severity
	Module   string // module identifier, empty for graph-wide diagnostics
	File     string
	Location Location
	Err      error
}

func (d *Diagnostic) Error() string {
	if d.File == "" {
		return d.Err.Error()
	}
	if d.Location.Line == 0 {
		return fmt.Sprintf("%s: %v", d.File, d.Err)
	}
	return fmt.Sprintf("%s:%d:%d: %v", d.File, d.Location.Line, d.Location.Column, d.Err)
}

func (d *Diagnostic) Unwrap() error { return d.Err }

// Invariant panics in Debug mode and otherwise returns a fatal Diagnostic.
// Call sites in graph/ use this for conditions that should never happen if
// Builder/Graph bookkeeping is correct.
func Invariant(msg string, args ...any) *Diagnostic {
	err := fmt.Errorf("%w: %s", ErrGraph, fmt.Sprintf(msg, args...))
	if Debug {
		panic(err)
	}
	return &Diagnostic{Severity: SeverityFatal, Err: err}
}

// Sort orders diagnostics by severity (fatal first), then file, then
// location, matching the CLI rendering order the watch daemon has always
// used for warning summaries.
func Sort(diags []*Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Location.Line != b.Location.Line {
			return a.Location.Line < b.Location.Line
		}
		return a.Location.Column < b.Location.Column
	})
}

// Flatten recursively unwraps errors.Join trees (including ones built by
// errors.Join with an Unwrap() []error method) into a flat slice, the same
// shape the old watch session's flattenErrors helper produced.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, Flatten(e)...)
		}
		return out
	}
	return []error{err}
}

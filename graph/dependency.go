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
package graph

// Dependency is satisfied by every dependency variant spec.md §3 names. A
// Dependency is the request-side half of a Connection: it names what a
// module wants, before resolution decides what module satisfies it.
type Dependency interface {
	ID() DependencyID
	Request() string
	ImportAttributes() map[string]string
	Weak() bool
	Optional() bool
}

type baseDependency struct {
	id                DependencyID
	request           string
	importAttributes  map[string]string
	weak              bool
	optional          bool
}

func (d *baseDependency) ID() DependencyID                   { return d.id }
func (d *baseDependency) Request() string                   { return d.request }
func (d *baseDependency) ImportAttributes() map[string]string { return d.importAttributes }
func (d *baseDependency) Weak() bool                         { return d.weak }
func (d *baseDependency) Optional() bool                     { return d.optional }

// ESMDependency is a static `import`/`export ... from` specifier.
type ESMDependency struct {
	baseDependency
	Specifiers []ESMSpecifier
}

// ESMSpecifier names one imported binding: Name is the exported name on the
// far side ("default" for default imports, "*" for namespace imports),
// Local is the binding name in the importing module.
type ESMSpecifier struct {
	Name  string
	Local string
}

// SpecifierNames returns the far-side export names this dependency imports,
// satisfying exports.esmSpecifierProvider without exports needing to know
// about graph's concrete ESMSpecifier shape.
func (d *ESMDependency) SpecifierNames() []string {
	names := make([]string, len(d.Specifiers))
	for i, s := range d.Specifiers {
		names[i] = s.Name
	}
	return names
}

// CommonJSDependency is a `require(...)` call.
type CommonJSDependency struct {
	baseDependency
}

// URLDependency is a `new URL(..., import.meta.url)` or CSS `url(...)`
// reference that resolves to an emitted asset rather than a JS/CSS module.
type URLDependency struct {
	baseDependency
}

// WorkerDependency is a `new Worker(new URL(...))` request, which spawns its
// own entry-like AsyncBlock/chunk group rather than joining the requesting
// module's chunk.
type WorkerDependency struct {
	baseDependency
}

// ContextDependency is a directory-glob require, resolving to a
// ContextModule.
type ContextDependency struct {
	baseDependency
	RegExp string
}

// NewESMDependency constructs an ESMDependency with its request already
// set, for use by tests and by ModuleFactory implementations that parse
// specifiers before asking Graph to allocate the DependencyID.
func NewESMDependency(request string, specifiers ...ESMSpecifier) *ESMDependency {
	return &ESMDependency{baseDependency: baseDependency{request: request}, Specifiers: specifiers}
}

// NewCommonJSDependency constructs a CommonJSDependency for a parsed
// `require(...)` call.
func NewCommonJSDependency(request string) *CommonJSDependency {
	return &CommonJSDependency{baseDependency: baseDependency{request: request}}
}

// NewWorkerDependency constructs a WorkerDependency for a parsed
// `new Worker(new URL(...))` call.
func NewWorkerDependency(request string) *WorkerDependency {
	return &WorkerDependency{baseDependency: baseDependency{request: request}}
}

// NewURLDependency constructs a URLDependency for a parsed asset/url()
// reference.
func NewURLDependency(request string) *URLDependency {
	return &URLDependency{baseDependency: baseDependency{request: request}}
}

// NewDependencyID wraps a raw integer as a DependencyID, for building
// standalone dependencies without a Graph. Graph.AddDependency does not use
// it: it allocates ids from the Graph's own idAllocator.
func NewDependencyID(raw uint64) DependencyID { return DependencyID(raw) }

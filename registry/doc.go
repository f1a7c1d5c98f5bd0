// Package registry serves versioned knowledge packs from a shared layout:
// each package gets a directory holding an index.json listing its versions
// and one <version>.json pack document per published version.
//
// Two clients read the layout. DirectoryRegistry walks it on the local
// filesystem; HTTPRegistry fetches the same paths from a base URL, so any
// static file server over a registry tree is a working remote registry.
// DirectoryRegistry can also Publish packs, which is how seed tooling
// builds a local registry.
package registry

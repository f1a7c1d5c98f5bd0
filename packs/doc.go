// Package packs installs versioned invoice packs into the knowledge base.
//
// A manifest (parsed by package requirements) declares which packs the
// assistant should know about. Resolve picks, for every declared pack, the
// highest registry version its constraints allow; the result can be frozen
// to a lockfile of exact "name==version" pins that later installs reuse as
// long as it still satisfies the manifest.
//
// The Installer drives the full cycle: resolve, fetch each pack from the
// registry, ingest its invoices through the ingestion pipeline and record
// the installation. Installs are idempotent per (name, version); upgrading
// a pack first deletes the documents its previous version contributed.
package packs

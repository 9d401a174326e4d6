// Package content owns the lifecycle of the portfolio's content.
//
// A content bundle (site.yaml, projects/, static/) comes from the embedded
// seed, a local directory, or a tar.gz in S3 whose SHA-256 is published in
// an SSM parameter. Every bundle is built into a [Snapshot] (the rendered
// site plus its project repository) before it can be served.
//
//   - [Manager] holds the active snapshot behind an atomic.Pointer.
//   - [Loader] fetches, verifies and extracts S3 bundles.
//   - [Watcher] polls SSM and hot-swaps validated snapshots.
//
// Extraction limits compressed size, per-file size and total size, and
// rejects absolute or traversing paths.
package content

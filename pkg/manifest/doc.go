// Package manifest locates, reads and writes project manifests.
//
// A project directory holds at most one authoritative manifest, checked in a
// fixed order:
//
//  1. package.json
//  2. package.json5
//  3. package.yaml
//
// The first file that exists wins; a file that exists but cannot be read or
// parsed is an error, and later candidates are never consulted. When none
// exists, [TryReadProjectManifest] returns a [Record] with a nil Manifest and
// a [Writer] that creates package.json on first use.
//
// # Writing
//
// Every record carries a [Writer] bound to the file it came from. The writer
// remembers the last persisted content in normalized form and only touches
// the disk when an update differs from it:
//
//	rec, err := manifest.ReadProjectManifest(dir)
//	if err != nil {
//	    return err
//	}
//	manifest.SetDependency(rec.Manifest, manifest.KindProd, "lodash", "^4.17.21")
//	if err := rec.Writer.Write(rec.Manifest, false); err != nil {
//	    return err
//	}
//
// Normalization sorts the four dependency blocks and drops empty ones, so
// reordering dependencies or adding an empty block is not a change. The
// persisted file keeps the caller's ordering and, for JSON and JSON5, the
// indentation and trailing newline detected when the file was read.
//
// # Concurrency
//
// A [Writer] is not safe for concurrent use. Nothing in this package locks
// the manifest file or checks it for outside modification; the last write
// wins.
package manifest

package cli

import (
	"context"
	"time"

	"github.com/matzehuels/manifestkit/pkg/manifest"
	"github.com/matzehuels/manifestkit/pkg/observability"
)

// readProject looks up the manifest of dir. With optional set a missing
// manifest yields a Record with a nil Manifest instead of an error.
func readProject(ctx context.Context, r *manifest.Reader, dir string, optional bool) (*manifest.Record, error) {
	start := time.Now()
	var (
		rec *manifest.Record
		err error
	)
	if optional {
		rec, err = r.TryRead(dir)
	} else {
		rec, err = r.Read(dir)
	}

	path := dir
	if rec != nil {
		path = rec.Path
	}
	found := rec != nil && rec.Manifest != nil
	observability.Manifest().OnRead(ctx, path, found, time.Since(start), err)
	return rec, err
}

// readExact reads the manifest file at path.
func readExact(ctx context.Context, r *manifest.Reader, path string) (*manifest.Record, error) {
	start := time.Now()
	rec, err := r.ReadExact(path)
	observability.Manifest().OnRead(ctx, path, rec != nil, time.Since(start), err)
	return rec, err
}

// writeManifest persists m through w and reports whether the file was
// written. Unchanged content is skipped unless force is set.
func writeManifest(ctx context.Context, w *manifest.Writer, m *manifest.Manifest, force bool) (bool, error) {
	logger := loggerFromContext(ctx)
	p := newProgress(logger)

	written := force
	if !force {
		changed, err := w.Changed(m)
		if err != nil {
			return false, err
		}
		written = changed
	}

	var err error
	if written {
		err = w.Write(m, force)
	}
	observability.Manifest().OnWrite(ctx, w.Path(), written && err == nil, p.elapsed(), err)
	if err != nil {
		return false, err
	}
	if written {
		p.done("wrote manifest", "path", w.Path())
	} else {
		logger.Debug("manifest unchanged", "path", w.Path())
	}
	return written, nil
}

package manifest

import merrors "github.com/matzehuels/manifestkit/pkg/errors"

// Writer persists a manifest to one file, skipping writes that would not
// change its normalized content.
//
// The baseline is the normalized form of what the file is known to hold. It
// starts as the content that was read (nil for a file that does not exist
// yet) and is replaced only after a successful write. A Writer is not safe
// for concurrent use.
type Writer struct {
	path       string
	formatting *Formatting
	baseline   *Manifest
}

// NewWriter returns a writer for path. formatting may be nil; baseline is the
// content the file currently holds, or nil if it does not exist.
func NewWriter(path string, formatting *Formatting, baseline *Manifest) (*Writer, error) {
	w := &Writer{path: path}
	if formatting != nil {
		f := *formatting
		w.formatting = &f
	}
	norm, err := Normalize(baseline)
	if err != nil {
		return nil, err
	}
	w.baseline = norm
	return w, nil
}

// Path returns the file the writer persists to.
func (w *Writer) Path() string { return w.path }

// Formatting returns a copy of the formatting applied on write, or nil.
func (w *Writer) Formatting() *Formatting {
	if w.formatting == nil {
		return nil
	}
	f := *w.formatting
	return &f
}

// Baseline returns a copy of the normalized content last read or written.
func (w *Writer) Baseline() *Manifest {
	if w.baseline == nil {
		return nil
	}
	c, err := canonical(w.baseline)
	if err != nil {
		return nil
	}
	return c
}

// Changed reports whether writing m would touch the file.
func (w *Writer) Changed(m *Manifest) (bool, error) {
	next, err := Normalize(m)
	if err != nil {
		return false, err
	}
	return w.baseline == nil || !equalNormalized(w.baseline, next), nil
}

// Write persists m unless it normalizes equal to the baseline. force writes
// regardless. On failure the baseline is left as it was.
func (w *Writer) Write(m *Manifest, force bool) error {
	if m == nil {
		return merrors.New(merrors.ErrCodeInvalidInput, "no manifest to write to %s", w.path)
	}
	next, err := Normalize(m)
	if err != nil {
		return err
	}
	if !force && w.baseline != nil && equalNormalized(w.baseline, next) {
		return nil
	}
	if err := WriteProjectManifest(w.path, m, w.formatting); err != nil {
		return err
	}
	w.baseline = next
	return nil
}

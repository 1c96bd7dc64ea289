package manifest

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	merrors "github.com/matzehuels/manifestkit/pkg/errors"
)

// defaultFormatting applies when a JSON-family file is written without
// captured formatting.
var defaultFormatting = Formatting{Indent: "\t", InsertFinalNewline: true}

// WriteProjectManifest serializes m to path in the format named by the
// path's extension and replaces the file atomically. Formatting is applied to
// JSON and JSON5 output and ignored for YAML; nil means tab indentation with
// a final newline. Missing parent directories are created.
func WriteProjectManifest(path string, m *Manifest, formatting *Formatting) error {
	data, err := marshal(m, filepath.Ext(path), formatting)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// Marshal serializes m in the format of the named manifest file, exactly as
// WriteProjectManifest would write it.
func Marshal(m *Manifest, name FileName, formatting *Formatting) ([]byte, error) {
	return marshal(m, filepath.Ext(string(name)), formatting)
}

func marshal(m *Manifest, ext string, formatting *Formatting) ([]byte, error) {
	if m == nil {
		return nil, merrors.New(merrors.ErrCodeInvalidInput, "no manifest to encode")
	}
	f := defaultFormatting
	if formatting != nil {
		f = *formatting
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(ext) {
	case ".json":
		data, err = encodeJSON(m, f.Indent)
	case ".json5":
		data, err = encodeJSON5(m, f.Indent)
	case ".yaml", ".yml":
		data, err = encodeYAML(m)
		f.InsertFinalNewline = false
	default:
		return nil, merrors.New(merrors.ErrCodeUnsupportedManifestName, "Not supported manifest extension %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if f.InsertFinalNewline {
		data = append(data, '\n')
	}
	return data, nil
}

// Unmarshal parses data in the format of the named manifest file. Errors
// carry the same codes the readers use.
func Unmarshal(data []byte, name FileName) (*Manifest, error) {
	label := string(name)
	switch FileName(strings.ToLower(label)) {
	case FileJSON:
		return parseJSON(label, data)
	case FileJSON5:
		return parseJSON5(label, data)
	case FileYAML:
		return parseYAML(label, data)
	}
	return nil, merrors.New(merrors.ErrCodeUnsupportedManifestName, "Not supported manifest name %q", label)
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place. An existing file's permissions are kept.
func writeFileAtomic(path string, data []byte) (err error) {
	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

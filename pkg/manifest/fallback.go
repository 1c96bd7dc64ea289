package manifest

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"syscall"

	merrors "github.com/matzehuels/manifestkit/pkg/errors"
)

// nativeNotDirectory reports whether opening dir/package.json already fails
// with ENOTDIR when dir is a regular file.
var nativeNotDirectory = runtime.GOOS != "windows"

// checkNotDirectory fails with NOT_A_DIRECTORY when dir exists and is not a
// directory. A failing stat is not an error.
func checkNotDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || info.IsDir() {
		return nil
	}
	return merrors.Wrap(merrors.ErrCodeNotADirectory,
		&fs.PathError{Op: "open", Path: dir, Err: syscall.ENOTDIR},
		"%s is not a directory", dir)
}

// absent builds the record returned when dir holds no manifest. Its writer
// creates package.json on first use.
func (r *Reader) absent(dir string) (*Record, error) {
	if r.notDirCheck {
		if err := checkNotDirectory(dir); err != nil {
			return nil, err
		}
	}
	path := filepath.Join(dir, string(FileJSON))
	w, err := NewWriter(path, nil, nil)
	if err != nil {
		return nil, err
	}
	return &Record{FileName: FileJSON, Path: path, Writer: w}, nil
}

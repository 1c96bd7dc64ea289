package manifest

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iancoleman/orderedmap"

	merrors "github.com/matzehuels/manifestkit/pkg/errors"
	"github.com/matzehuels/manifestkit/pkg/json5"
)

var errNotObject = stderrors.New("top-level value is not an object")

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// readResult is what a candidate reader produces. text is the source for
// formatting detection and is only set by JSON-family readers.
type readResult struct {
	manifest *Manifest
	text     string
	hasText  bool
}

type candidate struct {
	name FileName
	read func(path string) (*readResult, error)
}

// candidates in lookup priority order.
var candidates = []candidate{
	{FileJSON, readJSONFile},
	{FileJSON5, readJSON5File},
	{FileYAML, readYAMLFile},
}

func readerFor(name FileName) func(string) (*readResult, error) {
	for _, c := range candidates {
		if c.name == name {
			return c.read
		}
	}
	return nil
}

func readJSONFile(path string) (*readResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	m, err := parseJSON(path, data)
	if err != nil {
		return nil, err
	}
	return &readResult{manifest: m, text: string(data), hasText: true}, nil
}

func readJSON5File(path string) (*readResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	m, err := parseJSON5(path, data)
	if err != nil {
		return nil, err
	}
	return &readResult{manifest: m, text: string(data), hasText: true}, nil
}

func readYAMLFile(path string) (*readResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := parseYAML(path, data)
	if err != nil {
		return nil, err
	}
	return &readResult{manifest: m}, nil
}

func parseJSON(path string, data []byte) (*Manifest, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	m, err := decodeJSON(data)
	if err != nil {
		var syn *json.SyntaxError
		if stderrors.As(err, &syn) {
			line, col := position(data, int(syn.Offset))
			return nil, merrors.Wrap(merrors.ErrCodeJSONParse, err, "%s:%d:%d", path, line, col)
		}
		return nil, classifyDecodeError(path, merrors.ErrCodeJSONParse, err)
	}
	return m, nil
}

func parseJSON5(path string, data []byte) (*Manifest, error) {
	converted, err := json5.ToJSON(bytes.TrimPrefix(data, utf8BOM))
	if err != nil {
		return nil, merrors.Wrap(merrors.ErrCodeJSONParse, err, "%s", path)
	}
	m, err := decodeJSON(converted)
	if err != nil {
		return nil, classifyDecodeError(path, merrors.ErrCodeJSONParse, err)
	}
	return m, nil
}

func parseYAML(path string, data []byte) (*Manifest, error) {
	m, err := decodeYAML(data)
	if err != nil {
		return nil, classifyDecodeError(path, merrors.ErrCodeYAMLParse, err)
	}
	return m, nil
}

func classifyDecodeError(path string, code merrors.Code, err error) error {
	if stderrors.Is(err, errNotObject) {
		return merrors.Wrap(merrors.ErrCodeInvalidManifest, err, "%s", path)
	}
	return merrors.Wrap(code, err, "%s", path)
}

// decodeJSON decodes a JSON object into a manifest, keeping key order.
func decodeJSON(data []byte) (*Manifest, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if first := bytes.TrimLeft(raw, " \t\r\n"); len(first) == 0 || first[0] != '{' {
		return nil, errNotObject
	}
	v, err := decodeOrdered(json.NewDecoder(bytes.NewReader(raw)))
	if err != nil {
		return nil, err
	}
	obj, ok := v.(orderedmap.OrderedMap)
	if !ok {
		return nil, errNotObject
	}
	return &obj, nil
}

// decodeOrdered reads one value from dec. A key that repeats within an
// object keeps its first position and takes the last value, as JSON.parse
// does.
func decodeOrdered(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		obj := orderedmap.New()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := kt.(string)
			v, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return *obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, stderrors.New("unexpected " + delim.String())
}

// position returns the 1-based line and column of the last byte read when
// a decoder stopped after offset bytes.
func position(data []byte, offset int) (line, col int) {
	if offset > len(data) {
		offset = len(data)
	}
	if offset > 0 {
		offset--
	}
	before := data[:offset]
	line = bytes.Count(before, []byte{'\n'}) + 1
	col = offset - bytes.LastIndexByte(before, '\n')
	return line, col
}

// Reader locates and reads manifests. The zero value is not usable; call
// NewReader.
type Reader struct {
	notDirCheck bool
}

// Option configures a Reader.
type Option func(*Reader)

// WithNotDirectoryCheck turns the explicit not-a-directory check on or off.
// When on, looking up a directory path that names a regular file fails with
// NOT_A_DIRECTORY wrapping syscall.ENOTDIR. It defaults to on only where the
// operating system does not report that condition itself.
func WithNotDirectoryCheck(on bool) Option {
	return func(r *Reader) { r.notDirCheck = on }
}

// NewReader returns a Reader with the given options applied.
func NewReader(opts ...Option) *Reader {
	r := &Reader{notDirCheck: !nativeNotDirectory}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// lookup tries the candidates in order. A nil record with a nil error means
// none exists.
func (r *Reader) lookup(dir string) (*Record, error) {
	for _, c := range candidates {
		path := filepath.Join(dir, string(c.name))
		res, err := c.read(path)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		return newRecord(c.name, path, res)
	}
	return nil, nil
}

func newRecord(name FileName, path string, res *readResult) (*Record, error) {
	var formatting *Formatting
	if res.hasText {
		f := DetectFormatting(res.text)
		formatting = &f
	}
	w, err := NewWriter(path, formatting, res.manifest)
	if err != nil {
		return nil, err
	}
	return &Record{FileName: name, Path: path, Manifest: res.manifest, Writer: w}, nil
}

func notFound(dir string) error {
	return merrors.New(merrors.ErrCodeNoManifestFound,
		"No package.json (or package.yaml, or package.json5) was found in %q", dir)
}

// Read returns the manifest in dir, failing with NO_MANIFEST_FOUND when there
// is none.
func (r *Reader) Read(dir string) (*Record, error) {
	rec, err := r.TryRead(dir)
	if err != nil {
		return nil, err
	}
	if rec.Manifest == nil {
		return nil, notFound(dir)
	}
	return rec, nil
}

// TryRead returns the manifest in dir. When there is none the record has a
// nil Manifest and a writer that creates package.json.
func (r *Reader) TryRead(dir string) (*Record, error) {
	rec, err := r.lookup(dir)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	return r.absent(dir)
}

// ReadOnly is Read without the record.
func (r *Reader) ReadOnly(dir string) (*Manifest, error) {
	rec, err := r.Read(dir)
	if err != nil {
		return nil, err
	}
	return rec.Manifest, nil
}

// SafeReadOnly is ReadOnly with NO_MANIFEST_FOUND turned into a nil manifest.
// Every other failure is returned.
func (r *Reader) SafeReadOnly(dir string) (*Manifest, error) {
	m, err := r.ReadOnly(dir)
	if merrors.Is(err, merrors.ErrCodeNoManifestFound) {
		return nil, nil
	}
	return m, err
}

// ReadExact reads the manifest at path. The basename, compared without
// regard to case, selects the format; any other name fails with
// UNSUPPORTED_MANIFEST_NAME before the file is opened.
func (r *Reader) ReadExact(path string) (*Record, error) {
	base := filepath.Base(path)
	name := FileName(strings.ToLower(base))
	read := readerFor(name)
	if read == nil {
		return nil, merrors.New(merrors.ErrCodeUnsupportedManifestName, "Not supported manifest name %q", base)
	}
	res, err := read(path)
	if err != nil {
		return nil, err
	}
	return newRecord(name, path, res)
}

// ReadProjectManifest reads the manifest in dir with a default Reader.
func ReadProjectManifest(dir string) (*Record, error) {
	return NewReader().Read(dir)
}

// TryReadProjectManifest is the permissive form of ReadProjectManifest.
func TryReadProjectManifest(dir string) (*Record, error) {
	return NewReader().TryRead(dir)
}

// ReadProjectManifestOnly returns just the manifest in dir.
func ReadProjectManifestOnly(dir string) (*Manifest, error) {
	return NewReader().ReadOnly(dir)
}

// SafeReadProjectManifestOnly returns the manifest in dir, or nil if there is
// none.
func SafeReadProjectManifestOnly(dir string) (*Manifest, error) {
	return NewReader().SafeReadOnly(dir)
}

// ReadExactProjectManifest reads the manifest file at path.
func ReadExactProjectManifest(path string) (*Record, error) {
	return NewReader().ReadExact(path)
}

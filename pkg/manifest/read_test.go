package manifest

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"syscall"
	"testing"

	merrors "github.com/matzehuels/manifestkit/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func mustParse(t *testing.T, src string) *Manifest {
	t.Helper()
	m, err := decodeJSON([]byte(src))
	if err != nil {
		t.Fatalf("decodeJSON(%q): %v", src, err)
	}
	return m
}

func getString(m *Manifest, key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

func TestReadProjectManifestPriority(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  FileName
		value string
	}{
		{
			name: "json over yaml",
			files: map[string]string{
				"package.json": `{"name": "from-json"}`,
				"package.yaml": "name: from-yaml\n",
			},
			want:  FileJSON,
			value: "from-json",
		},
		{
			name: "json over json5",
			files: map[string]string{
				"package.json":  `{"name": "from-json"}`,
				"package.json5": `{name: 'from-json5'}`,
			},
			want:  FileJSON,
			value: "from-json",
		},
		{
			name: "json5 over yaml",
			files: map[string]string{
				"package.json5": `{name: 'from-json5'}`,
				"package.yaml":  "name: from-yaml\n",
			},
			want:  FileJSON5,
			value: "from-json5",
		},
		{
			name:  "yaml alone",
			files: map[string]string{"package.yaml": "name: from-yaml\n"},
			want:  FileYAML,
			value: "from-yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			rec, err := ReadProjectManifest(dir)
			if err != nil {
				t.Fatalf("ReadProjectManifest: %v", err)
			}
			if rec.FileName != tt.want {
				t.Errorf("FileName = %q, want %q", rec.FileName, tt.want)
			}
			if got := getString(rec.Manifest, "name"); got != tt.value {
				t.Errorf("name = %q, want %q", got, tt.value)
			}
			if want := filepath.Join(dir, string(tt.want)); rec.Path != want {
				t.Errorf("Path = %q, want %q", rec.Path, want)
			}
			if rec.Writer == nil || rec.Writer.Path() != rec.Path {
				t.Errorf("writer not bound to %s", rec.Path)
			}
		})
	}
}

func TestReadProjectManifestFormatting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", "{\n    \"name\": \"demo\"\n}\n")

	rec, err := ReadProjectManifest(dir)
	if err != nil {
		t.Fatalf("ReadProjectManifest: %v", err)
	}
	f := rec.Writer.Formatting()
	if f == nil {
		t.Fatal("Formatting = nil for a JSON file")
	}
	if f.Indent != "    " || !f.InsertFinalNewline {
		t.Errorf("Formatting = %+v, want 4 spaces and final newline", *f)
	}

	yamlDir := t.TempDir()
	writeFile(t, yamlDir, "package.yaml", "name: demo\n")
	rec, err = ReadProjectManifest(yamlDir)
	if err != nil {
		t.Fatalf("ReadProjectManifest: %v", err)
	}
	if f := rec.Writer.Formatting(); f != nil {
		t.Errorf("Formatting = %+v for a YAML file, want nil", *f)
	}
}

func TestReadProjectManifestKeyOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"z": 1, "a": {"y": 1, "b": 2}, "m": [{"q": 1, "c": 2}]}`)

	m, err := ReadProjectManifestOnly(dir)
	if err != nil {
		t.Fatalf("ReadProjectManifestOnly: %v", err)
	}
	if got, want := m.Keys(), []string{"z", "a", "m"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys = %v, want %v", got, want)
	}
	nested, ok := asObject(mustGet(t, m, "a"))
	if !ok {
		t.Fatal("a is not an object")
	}
	if got, want := nested.Keys(), []string{"y", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("a.Keys = %v, want %v", got, want)
	}
}

func TestReadProjectManifestDuplicateKeys(t *testing.T) {
	tests := []struct {
		name    FileName
		content string
	}{
		{FileJSON, `{"a":1,"b":2,"a":3}`},
		{FileJSON5, `{a:1,b:2,a:3}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, string(tt.name), tt.content)

			rec, err := ReadProjectManifest(dir)
			if err != nil {
				t.Fatalf("ReadProjectManifest: %v", err)
			}
			if got, want := rec.Manifest.Keys(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
				t.Errorf("Keys = %v, want %v", got, want)
			}
			if got := mustGet(t, rec.Manifest, "a"); got != float64(3) {
				t.Errorf("a = %v, want 3", got)
			}

			if err := rec.Writer.Write(rec.Manifest, true); err != nil {
				t.Fatalf("Write: %v", err)
			}
			want := `{"a":3,"b":2}`
			if tt.name == FileJSON5 {
				want = `{a:3,b:2}`
			}
			if got := readFile(t, path); got != want {
				t.Errorf("rewritten = %q, want %q", got, want)
			}
		})
	}
}

func TestReadProjectManifestJSON5NonFinite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json5", "{name: 'x', n: Infinity, m: -Infinity, q: NaN}\n")

	rec, err := ReadProjectManifest(dir)
	if err != nil {
		t.Fatalf("ReadProjectManifest: %v", err)
	}
	for _, key := range []string{"n", "m", "q"} {
		if v := mustGet(t, rec.Manifest, key); v != nil {
			t.Errorf("%s = %v, want nil", key, v)
		}
	}

	if err := rec.Writer.Write(rec.Manifest, true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := ReadProjectManifest(dir); err != nil {
		t.Errorf("reading the rewritten file: %v", err)
	}
}

func mustGet(t *testing.T, m *Manifest, key string) any {
	t.Helper()
	v, ok := m.Get(key)
	if !ok {
		t.Fatalf("missing key %q", key)
	}
	return v
}

func TestReadProjectManifestBOM(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", "\ufeff{\"name\": \"bom\"}")

	m, err := ReadProjectManifestOnly(dir)
	if err != nil {
		t.Fatalf("ReadProjectManifestOnly: %v", err)
	}
	if got := getString(m, "name"); got != "bom" {
		t.Errorf("name = %q, want %q", got, "bom")
	}
}

func TestReadProjectManifestNotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadProjectManifest(dir)
	if !merrors.Is(err, merrors.ErrCodeNoManifestFound) {
		t.Fatalf("ReadProjectManifest error = %v, want NO_MANIFEST_FOUND", err)
	}
	want := `No package.json (or package.yaml, or package.json5) was found in "` + dir + `"`
	if got := merrors.UserMessage(err); got != want {
		t.Errorf("UserMessage = %q, want %q", got, want)
	}

	rec, err := TryReadProjectManifest(dir)
	if err != nil {
		t.Fatalf("TryReadProjectManifest: %v", err)
	}
	if rec.FileName != FileJSON {
		t.Errorf("FileName = %q, want %q", rec.FileName, FileJSON)
	}
	if rec.Manifest != nil {
		t.Errorf("Manifest = %v, want nil", rec.Manifest)
	}
	if want := filepath.Join(dir, "package.json"); rec.Path != want || rec.Writer.Path() != want {
		t.Errorf("Path = %q, writer path = %q, want %q", rec.Path, rec.Writer.Path(), want)
	}

	m, err := SafeReadProjectManifestOnly(dir)
	if err != nil || m != nil {
		t.Errorf("SafeReadProjectManifestOnly = %v, %v, want nil, nil", m, err)
	}
	if _, err := ReadProjectManifestOnly(dir); !merrors.Is(err, merrors.ErrCodeNoManifestFound) {
		t.Errorf("ReadProjectManifestOnly error = %v, want NO_MANIFEST_FOUND", err)
	}
}

func TestReadProjectManifestMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	rec, err := NewReader(WithNotDirectoryCheck(true)).TryRead(dir)
	if err != nil {
		t.Fatalf("TryRead: %v", err)
	}
	if rec.Manifest != nil {
		t.Errorf("Manifest = %v, want nil", rec.Manifest)
	}
}

func TestReadProjectManifestErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		code  merrors.Code
		path  string
	}{
		{
			name: "malformed json is not masked by yaml",
			files: map[string]string{
				"package.json": `{"name": }`,
				"package.yaml": "name: ok\n",
			},
			code: merrors.ErrCodeJSONParse,
			path: "package.json",
		},
		{
			name:  "malformed json5",
			files: map[string]string{"package.json5": "{\n  name: 'x',,\n}"},
			code:  merrors.ErrCodeJSONParse,
			path:  "package.json5",
		},
		{
			name:  "malformed yaml",
			files: map[string]string{"package.yaml": "name: [unclosed\n"},
			code:  merrors.ErrCodeYAMLParse,
			path:  "package.yaml",
		},
		{
			name:  "json array",
			files: map[string]string{"package.json": `["a"]`},
			code:  merrors.ErrCodeInvalidManifest,
			path:  "package.json",
		},
		{
			name:  "json null",
			files: map[string]string{"package.json": `null`},
			code:  merrors.ErrCodeInvalidManifest,
			path:  "package.json",
		},
		{
			name:  "yaml sequence",
			files: map[string]string{"package.yaml": "- a\n- b\n"},
			code:  merrors.ErrCodeInvalidManifest,
			path:  "package.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			_, err := TryReadProjectManifest(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := merrors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.code, err)
			}
			if want := filepath.Join(dir, tt.path); !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not mention %s", err, want)
			}
		})
	}
}

func TestReadProjectManifestJSONPosition(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "package.json", "{\n  \"name\": \"x\"\n  \"version\": \"1\"\n}")

	_, err := ReadProjectManifest(dir)
	if !merrors.Is(err, merrors.ErrCodeJSONParse) {
		t.Fatalf("error = %v, want JSON_PARSE", err)
	}
	if !strings.Contains(err.Error(), path+":3:") {
		t.Errorf("error %q does not point at line 3", err)
	}
}

func TestReadExactProjectManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "PACKAGE.JSON", `{"name": "upper"}`)
	writeFile(t, dir, "Package.Yaml", "name: mixed\n")

	tests := []struct {
		file  string
		want  FileName
		value string
	}{
		{"PACKAGE.JSON", FileJSON, "upper"},
		{"Package.Yaml", FileYAML, "mixed"},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, tt.file)
		rec, err := ReadExactProjectManifest(path)
		if err != nil {
			t.Fatalf("ReadExactProjectManifest(%s): %v", tt.file, err)
		}
		if rec.FileName != tt.want {
			t.Errorf("FileName = %q, want %q", rec.FileName, tt.want)
		}
		if rec.Path != path {
			t.Errorf("Path = %q, want %q", rec.Path, path)
		}
		if got := getString(rec.Manifest, "name"); got != tt.value {
			t.Errorf("name = %q, want %q", got, tt.value)
		}
	}
}

func TestReadExactProjectManifestUnsupported(t *testing.T) {
	// The directory does not exist: any filesystem access would surface as
	// a not-exist error instead.
	for _, name := range []string{"manifest.toml", "package.yml", "package.json.bak", "composer.json"} {
		path := filepath.Join(t.TempDir(), "missing", name)
		_, err := ReadExactProjectManifest(path)
		if !merrors.Is(err, merrors.ErrCodeUnsupportedManifestName) {
			t.Errorf("ReadExactProjectManifest(%s) error = %v, want UNSUPPORTED_MANIFEST_NAME", name, err)
			continue
		}
		if stderrors.Is(err, fs.ErrNotExist) {
			t.Errorf("ReadExactProjectManifest(%s) touched the filesystem: %v", name, err)
		}
		if want := `Not supported manifest name "` + name + `"`; merrors.UserMessage(err) != want {
			t.Errorf("UserMessage = %q, want %q", merrors.UserMessage(err), want)
		}
	}
}

func TestReadExactProjectManifestMissingFile(t *testing.T) {
	_, err := ReadExactProjectManifest(filepath.Join(t.TempDir(), "package.json"))
	if !stderrors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", err)
	}
}

func TestReadProjectManifestNativeNotDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("ENOTDIR is emulated on windows")
	}
	file := writeFile(t, t.TempDir(), "file.txt", "not a directory")

	_, err := NewReader(WithNotDirectoryCheck(false)).TryRead(file)
	if !stderrors.Is(err, syscall.ENOTDIR) {
		t.Errorf("error = %v, want ENOTDIR", err)
	}
}

func TestNewReaderDefault(t *testing.T) {
	if got, want := NewReader().notDirCheck, runtime.GOOS == "windows"; got != want {
		t.Errorf("notDirCheck = %v, want %v", got, want)
	}
	if !NewReader(WithNotDirectoryCheck(true)).notDirCheck {
		t.Error("WithNotDirectoryCheck(true) not applied")
	}
}

func TestPosition(t *testing.T) {
	data := []byte("ab\ncd\nef")
	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 2},
		{3, 1, 3},
		{5, 2, 2},
		{100, 3, 2},
	}
	for _, tt := range tests {
		line, col := position(data, tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("position(%d) = %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}
}

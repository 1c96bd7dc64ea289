package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	merrors "github.com/matzehuels/manifestkit/pkg/errors"
	"github.com/matzehuels/manifestkit/pkg/manifest"
)

func newTestServer(t *testing.T, root string) *httptest.Server {
	t.Helper()
	s := newServer(root, manifest.NewReader(), newLogger(io.Discard, log.InfoLevel))
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(data)
}

func decodeError(t *testing.T, body string) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("error body %q is not JSON: %v", body, err)
	}
	return e
}

func TestServerHealth(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, `"ok"`) || !strings.Contains(body, `"version":`) {
		t.Errorf("body = %q", body)
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Error("response has no request ID")
	}
}

func TestServerRequestIDEcho(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q, want %q", got, "abc-123")
	}
}

func TestServerGetManifest(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "web")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeProjectFile(t, sub, "package.yaml", "version: 2.0.0\nname: web\n")
	ts := newTestServer(t, root)

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/manifest?dir=web", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	want := "{\n  \"version\": \"2.0.0\",\n  \"name\": \"web\"\n}\n"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestServerGetMissing(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/manifest", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if e := decodeError(t, body); e.Code != merrors.ErrCodeNoManifestFound {
		t.Errorf("code = %q, want %q", e.Code, merrors.ErrCodeNoManifestFound)
	}

	resp, body = doRequest(t, http.MethodGet, ts.URL+"/manifest?optional=true", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("optional status = %d, want 200", resp.StatusCode)
	}
	if strings.TrimSpace(body) != "null" {
		t.Errorf("optional body = %q, want null", body)
	}
}

func TestServerBadRequests(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "package.json", `{"name": "broken",}`)
	ts := newTestServer(t, root)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   merrors.Code
	}{
		{"escape root", http.MethodGet, "/manifest?dir=../x", "", http.StatusBadRequest, merrors.ErrCodeInvalidInput},
		{"bad optional", http.MethodGet, "/manifest?optional=maybe", "", http.StatusBadRequest, merrors.ErrCodeInvalidInput},
		{"unparsable file", http.MethodGet, "/manifest", "", http.StatusUnprocessableEntity, merrors.ErrCodeJSONParse},
		{"bad body", http.MethodPut, "/manifest?dir=new", "{", http.StatusUnprocessableEntity, merrors.ErrCodeJSONParse},
		{"array body", http.MethodPut, "/manifest?dir=new", "[1]", http.StatusUnprocessableEntity, merrors.ErrCodeInvalidManifest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, tt.method, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (body %s)", resp.StatusCode, tt.status, body)
			}
			if e := decodeError(t, body); e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
		})
	}
}

func TestServerPutManifest(t *testing.T) {
	root := t.TempDir()
	ts := newTestServer(t, root)
	url := ts.URL + "/manifest?dir=app"
	body := `{"name":"app","dependencies":{"b":"1","a":"2"}}`

	put := func(url, body string) putResponse {
		t.Helper()
		resp, data := doRequest(t, http.MethodPut, url, body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("PUT status = %d, body %s", resp.StatusCode, data)
		}
		var out putResponse
		if err := json.Unmarshal([]byte(data), &out); err != nil {
			t.Fatalf("PUT body %q: %v", data, err)
		}
		return out
	}

	first := put(url, body)
	if !first.Written || first.FileName != manifest.FileJSON {
		t.Errorf("first PUT = %+v, want package.json written", first)
	}
	path := filepath.Join(root, "app", "package.json")
	if first.Path != path {
		t.Errorf("path = %q, want %q", first.Path, path)
	}
	want := "{\n\t\"name\": \"app\",\n\t\"dependencies\": {\n\t\t\"b\": \"1\",\n\t\t\"a\": \"2\"\n\t}\n}\n"
	if got := readProjectFile(t, path); got != want {
		t.Errorf("package.json = %q, want %q", got, want)
	}

	// Same dependencies in another order normalize equal.
	if second := put(url, `{"dependencies":{"a":"2","b":"1"},"name":"app"}`); second.Written {
		t.Error("unchanged PUT was written")
	}
	if third := put(url+"&force=true", body); !third.Written {
		t.Error("forced PUT was not written")
	}
}

package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	m := NoopManifestHooks{}
	m.OnRead(ctx, "/p/package.json", true, time.Millisecond, nil)
	m.OnWrite(ctx, "/p/package.json", false, time.Millisecond, nil)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/manifest")
	h.OnResponse(ctx, "GET", "/manifest", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Manifest().(NoopManifestHooks); !ok {
		t.Error("Manifest() should return NoopManifestHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customManifest := &testManifestHooks{}
	SetManifestHooks(customManifest)
	if Manifest() != customManifest {
		t.Error("SetManifestHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Manifest().(NoopManifestHooks); !ok {
		t.Error("Reset() should restore NoopManifestHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset() should restore NoopHTTPHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testManifestHooks{}
	SetManifestHooks(custom)
	SetManifestHooks(nil)

	if Manifest() != custom {
		t.Error("SetManifestHooks(nil) should be ignored")
	}
}

type testManifestHooks struct{ NoopManifestHooks }
type testHTTPHooks struct{ NoopHTTPHooks }

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/manifestkit/pkg/buildinfo"
	merrors "github.com/matzehuels/manifestkit/pkg/errors"
	"github.com/matzehuels/manifestkit/pkg/manifest"
	"github.com/matzehuels/manifestkit/pkg/observability"
)

const (
	// maxBodyBytes caps PUT /manifest request bodies.
	maxBodyBytes = 1 << 20

	// shutdownTimeout bounds graceful shutdown after the context ends.
	shutdownTimeout = 5 * time.Second

	requestIDHeader = "X-Request-ID"
)

// serveCommand creates the serve command, which exposes the manifests below
// the project directory over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve project manifests over HTTP",
		Long: `Serve the manifests below the project directory over HTTP.

Endpoints:
  GET  /manifest?dir=sub[&optional=true]   manifest as JSON (404, or null with optional)
  PUT  /manifest?dir=sub[&force=true]      write a JSON manifest, skipped when unchanged
  GET  /healthz

dir is relative to --dir and may not leave it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = c.Config.Listen
			}
			return c.serve(cmd.Context(), listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, 127.0.0.1:7373)")

	return cmd
}

func (c *CLI) serve(ctx context.Context, addr string) error {
	logger := loggerFromContext(ctx)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return merrors.Wrap(merrors.ErrCodeInvalidConfig, err, "listen on %s", addr)
	}

	srv := &http.Server{
		Handler:           newServer(c.projectDir(), c.reader, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	c.printSuccess("Serving %s", StyleHighlight.Render("http://"+ln.Addr().String()))
	c.printDetail("root %s", c.projectDir())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// Server
// =============================================================================

// server serves the manifests of directories below root.
type server struct {
	root   string
	reader *manifest.Reader
	logger *log.Logger
}

func newServer(root string, reader *manifest.Reader, logger *log.Logger) *server {
	return &server{root: root, reader: reader, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/manifest", s.handleGetManifest)
	r.Put("/manifest", s.handlePutManifest)
	return r
}

// requestID tags each request with an ID, taken from the client when it
// sends one, and attaches a logger carrying it.
func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := withLogger(r.Context(), s.logger.With("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		observability.HTTP().OnRequest(ctx, r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		took := time.Since(start)
		observability.HTTP().OnResponse(ctx, r.Method, r.URL.Path, status, took)
		loggerFromContext(ctx).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"took", took.Round(time.Microsecond),
		)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Current()})
}

func (s *server) handleGetManifest(w http.ResponseWriter, r *http.Request) {
	dir, err := s.resolve(r.URL.Query().Get("dir"))
	if err != nil {
		writeError(w, err)
		return
	}
	optional, err := boolParam(r, "optional")
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	var m *manifest.Manifest
	if optional {
		m, err = s.reader.SafeReadOnly(dir)
	} else {
		m, err = s.reader.ReadOnly(dir)
	}
	observability.Manifest().OnRead(r.Context(), dir, m != nil, time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}

	if m == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	data, err := manifest.Marshal(m, manifest.FileJSON, &manifest.Formatting{Indent: "  ", InsertFinalNewline: true})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// putResponse reports the outcome of PUT /manifest.
type putResponse struct {
	FileName manifest.FileName `json:"fileName"`
	Path     string            `json:"path"`
	Written  bool              `json:"written"`
}

func (s *server) handlePutManifest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dir, err := s.resolve(r.URL.Query().Get("dir"))
	if err != nil {
		writeError(w, err)
		return
	}
	force, err := boolParam(r, "force")
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, merrors.Wrap(merrors.ErrCodeInvalidInput, err, "read request body"))
		return
	}
	m, err := manifest.Unmarshal(body, manifest.FileJSON)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := readProject(ctx, s.reader, dir, true)
	if err != nil {
		writeError(w, err)
		return
	}
	written, err := writeManifest(ctx, rec.Writer, m, force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, putResponse{FileName: rec.FileName, Path: rec.Path, Written: written})
}

// resolve maps the dir query parameter onto the server root. Paths that
// would leave the root are rejected.
func (s *server) resolve(dir string) (string, error) {
	if dir == "" || dir == "." {
		return s.root, nil
	}
	if !filepath.IsLocal(dir) {
		return "", merrors.New(merrors.ErrCodeInvalidInput, "dir %q must be a relative path inside the served root", dir)
	}
	return filepath.Join(s.root, dir), nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, merrors.New(merrors.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, v)
	}
	return b, nil
}

// =============================================================================
// Responses
// =============================================================================

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Code  merrors.Code `json:"code"`
	Error string       `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := merrors.GetCode(err)
	switch {
	case code != "":
	case errors.Is(err, syscall.ENOTDIR):
		code = merrors.ErrCodeNotADirectory
	default:
		code = merrors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorResponse{Code: code, Error: merrors.UserMessage(err)})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code merrors.Code) int {
	switch code {
	case merrors.ErrCodeNoManifestFound:
		return http.StatusNotFound
	case merrors.ErrCodeJSONParse, merrors.ErrCodeYAMLParse, merrors.ErrCodeInvalidManifest:
		return http.StatusUnprocessableEntity
	case merrors.ErrCodeInvalidInput, merrors.ErrCodeInvalidPackage,
		merrors.ErrCodeUnsupportedManifestName, merrors.ErrCodeNotADirectory:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

package handlers

import (
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticFiles returns a handler serving the files under root.
//
// Directories are answered with their index.html, or a listing when there is
// none. Missing files get a 404 page. Anything that resolves outside root,
// including symlinks pointing out of it, gets a 403 page. Only GET and HEAD
// are supported; anything else gets 501, the way the game's original Python
// launcher answered. The handler never logs.
func StaticFiles(root string) (http.Handler, error) {
	// Resolve the root once up front so every request is checked against the
	// real on-disk location, even when root itself is reached through a symlink.
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving server root %s: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving server root %s: %w", root, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("server root %s: %w", resolved, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("server root %s is not a directory", resolved)
	}

	// The standard file server does the work: path cleaning, index.html,
	// directory listings, content types, ranges and HEAD.
	fileServer := http.FileServer(confinedFileSystem{
		fs:   http.Dir(resolved),
		root: resolved,
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			// e.g. "Unsupported method ('POST')"
			RenderErrorPage(w, http.StatusNotImplemented, fmt.Sprintf("Unsupported method ('%s')", r.Method))
			return
		}
		// Wrap the writer so 4xx/5xx bodies become the HTML error page.
		fileServer.ServeHTTP(&errorPageWriter{ResponseWriter: w}, r)
	}), nil
}

// confinedFileSystem refuses to open anything whose real path, after
// following symlinks, is outside root.
type confinedFileSystem struct {
	fs   http.FileSystem
	root string // absolute, symlinks resolved
}

func (cfs confinedFileSystem) Open(name string) (http.File, error) {
	// http.Dir already refuses ".." and maps missing files to ErrNotExist.
	f, err := cfs.fs.Open(name)
	if err != nil {
		return nil, err
	}

	// Build the same on-disk path http.Dir opened, then follow every
	// symlink in it to see where the file really lives.
	full := filepath.Join(cfs.root, filepath.FromSlash(path.Clean("/"+name)))
	target, err := filepath.EvalSymlinks(full)
	if err != nil {
		f.Close()
		return nil, err
	}

	// Outside the root: report ErrPermission so the file server answers 403.
	if !within(cfs.root, target) {
		f.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}

	return f, nil
}

// within reports whether target is root or lies below it.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// errorPageWriter lets successful responses through untouched and swaps the
// plain-text body of 4xx/5xx responses for the HTML error page.
type errorPageWriter struct {
	http.ResponseWriter
	statusCode  int
	intercepted bool
}

func (ew *errorPageWriter) WriteHeader(code int) {
	// Only the first status counts, same as a plain ResponseWriter.
	if ew.statusCode != 0 {
		return
	}
	ew.statusCode = code
	if code >= http.StatusBadRequest {
		ew.intercepted = true
		RenderErrorPage(ew.ResponseWriter, code, "")
		return
	}
	ew.ResponseWriter.WriteHeader(code)
}

func (ew *errorPageWriter) Write(p []byte) (int, error) {
	if ew.statusCode == 0 {
		ew.WriteHeader(http.StatusOK)
	}
	// The error page is already written; swallow the plain-text body.
	if ew.intercepted {
		return len(p), nil
	}
	return ew.ResponseWriter.Write(p)
}

// ReadFrom keeps the sendfile path of the underlying writer for file bodies.
func (ew *errorPageWriter) ReadFrom(r io.Reader) (int64, error) {
	if ew.statusCode == 0 {
		ew.WriteHeader(http.StatusOK)
	}
	if ew.intercepted {
		return io.Copy(io.Discard, r)
	}
	return io.Copy(ew.ResponseWriter, r)
}

func (ew *errorPageWriter) Unwrap() http.ResponseWriter {
	return ew.ResponseWriter
}

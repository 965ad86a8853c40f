//go:build dev

package resources

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
)

// staticDir locates static/ next to this source file so edits to the
// preview script show up without a rebuild.
func staticDir() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return StaticDirectoryPath
	}
	return filepath.Join(filepath.Dir(filename), "static")
}

// Handler returns an HTTP handler serving static files from disk.
func Handler() http.Handler {
	dir := staticDir()
	slog.Info("static assets served from filesystem", "path", dir)
	return http.StripPrefix("/static/", http.FileServer(http.FS(os.DirFS(dir))))
}

package web

import (
	"bytes"
	"embed"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

//go:embed static/index.html
var assets embed.FS

// IndexHandler serves index.html for every request it receives. The page is read from
// dir when dir is set, otherwise the embedded copy is served.
func IndexHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")

		if dir != "" {
			serveFile(w, r, filepath.Join(dir, "index.html"))
			return
		}

		page, err := assets.ReadFile("static/index.html")
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(page))
	}
}

// serveFile uses ServeContent rather than ServeFile, which would redirect
// requests whose path ends in /index.html.
func serveFile(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	http.ServeContent(w, r, "index.html", info.ModTime(), f)
}

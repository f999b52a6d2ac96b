package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed all:dist/*
var distFS embed.FS

// GetFileSystem returns an http.FileSystem for the embedded dist directory.
func GetFileSystem() http.FileSystem {
	fsys, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}

// Handler serves the embedded script and stylesheet under prefix.
func Handler(prefix string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(GetFileSystem()))
}

// Package static bundles the web UI assets into the binary.
package static

import (
	"embed"
	"io/fs"
)

// StaticFS holds the embedded UI assets.
//
//go:embed index.html
var StaticFS embed.FS

// GetFS returns the embedded filesystem for use with http.FileServer.
func GetFS() fs.FS {
	return StaticFS
}

// ReadFile reads an embedded asset by name.
func ReadFile(name string) ([]byte, error) {
	return StaticFS.ReadFile(name)
}

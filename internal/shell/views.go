package shell

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed views/*.html
var viewsFS embed.FS

// ViewsDirName is the directory under the data dir holding the local pages
const ViewsDirName = "views"

// MaterializeViews writes the embedded pages to dataDir/views so file-based
// windows can load them. Existing files are overwritten.
func MaterializeViews(dataDir string) (string, error) {
	dir := filepath.Join(dataDir, ViewsDirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create views directory: %w", err)
	}

	entries, err := fs.ReadDir(viewsFS, "views")
	if err != nil {
		return "", fmt.Errorf("failed to list embedded views: %w", err)
	}
	for _, e := range entries {
		data, err := viewsFS.ReadFile("views/" + e.Name())
		if err != nil {
			return "", fmt.Errorf("failed to read embedded view %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name()), data, 0600); err != nil {
			return "", fmt.Errorf("failed to write view %s: %w", e.Name(), err)
		}
	}
	return dir, nil
}

// ViewPath returns a resolver from view name to file inside dir
func ViewPath(dir string) func(name string) string {
	return func(name string) string {
		return filepath.Join(dir, name)
	}
}

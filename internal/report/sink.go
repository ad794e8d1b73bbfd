package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sink accepts finished text and renders it somewhere. The core hands
// finished documents to a sink and does not care about the format beyond
// that boundary.
type Sink interface {
	Write(name string, content string) (string, error)
}

// DirSink writes documents as markdown files into a directory.
type DirSink struct {
	Dir string
}

// Write stores the content as <dir>/<name>.md and returns the path.
func (s DirSink) Write(name string, content string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(s.Dir, name+".md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

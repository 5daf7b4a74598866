package migration

import (
	"io"
	"os"
	"path/filepath"

	"holiday-pipeline/src/logger"
)

// OpenRunLog returns a logger writing "[ISO timestamp] message" lines to
// console and to path, opened append-only. Close the returned file when done.
func OpenRunLog(path string, console io.Writer) (*logger.Logger, *os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	if console == nil {
		console = os.Stdout
	}
	return logger.NewISOLogger("Migration", io.MultiWriter(console, f)), f, nil
}
